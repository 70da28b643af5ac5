package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	shareddomain "bizit/internal/shared/domain"
)

var (
	// ErrStoreNotFound aucune fiche magasin pour cet utilisateur
	ErrStoreNotFound = errors.New("store profile not found")

	// ErrInvalidProfile la fiche soumise ne respecte pas les invariants
	ErrInvalidProfile = errors.New("invalid store profile")
)

// Location localisation du magasin; coordonnées et district sont complétés côté serveur
type Location struct {
	Address       string   `json:"address"`
	DetailAddress string   `json:"detail_address,omitempty"`
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`
	AdminCode     string   `json:"admin_code,omitempty"`
	AdminDongName string   `json:"admin_dong_name,omitempty"`
}

// WeeklySales ventes par jour de la semaine
type WeeklySales struct {
	Mon int64 `json:"mon"`
	Tue int64 `json:"tue"`
	Wed int64 `json:"wed"`
	Thu int64 `json:"thu"`
	Fri int64 `json:"fri"`
	Sat int64 `json:"sat"`
	Sun int64 `json:"sun"`
}

// TimeSlotSales ventes par tranche horaire
type TimeSlotSales struct {
	T00to06 int64 `json:"t00_06"`
	T06to11 int64 `json:"t06_11"`
	T11to14 int64 `json:"t11_14"`
	T14to17 int64 `json:"t14_17"`
	T17to21 int64 `json:"t17_21"`
	T21to24 int64 `json:"t21_24"`
}

// GenderSales ventes par genre
type GenderSales struct {
	Male   int64 `json:"male"`
	Female int64 `json:"female"`
}

// AgeGroupSales ventes par tranche d'âge
type AgeGroupSales struct {
	A10     int64 `json:"a10"`
	A20     int64 `json:"a20"`
	A30     int64 `json:"a30"`
	A40     int64 `json:"a40"`
	A50     int64 `json:"a50"`
	A60Over int64 `json:"a60_over"`
}

// SalesLogDetails ventilation optionnelle d'un mois
type SalesLogDetails struct {
	Weekly    *WeeklySales   `json:"weekly,omitempty"`
	TimeSlot  *TimeSlotSales `json:"time_slot,omitempty"`
	Gender    *GenderSales   `json:"gender,omitempty"`
	AgeGroups *AgeGroupSales `json:"age_groups,omitempty"`
}

// SalesLog ventes déclarées pour un mois
type SalesLog struct {
	YearMonth string           `json:"ym"`
	Revenue   int64            `json:"revenue"`
	Profit    int64            `json:"profit"`
	Details   *SalesLogDetails `json:"details,omitempty"`
}

// RevenueMoney retourne le chiffre d'affaires du mois en KRW
func (s SalesLog) RevenueMoney() (shareddomain.Money, error) {
	return shareddomain.NewMoney(s.Revenue, shareddomain.CurrencyKRW)
}

// FixedCost charges fixes mensuelles
type FixedCost struct {
	Electricity int64 `json:"electricity"`
	Water       int64 `json:"water"`
	Gas         int64 `json:"gas"`
	Labor       int64 `json:"labor"`
	Rent        int64 `json:"rent"`
	Etc         int64 `json:"etc"`
}

// DeliveryInfo activité de livraison
type DeliveryInfo struct {
	IsActive   bool    `json:"is_active"`
	SalesRatio float64 `json:"sales_ratio"`
}

// MenuItem un plat de la carte
type MenuItem struct {
	Name     string  `json:"name"`
	Price    int64   `json:"price"`
	CostRate float64 `json:"cost_rate"`
}

// MenuInfo carte du magasin
type MenuInfo struct {
	Main    []MenuItem `json:"main"`
	General []MenuItem `json:"general"`
}

// StoreScale taille du magasin
type StoreScale struct {
	AreaSize *float64 `json:"area_size,omitempty"`
	Seats    *int     `json:"seats,omitempty"`
	Turnover *float64 `json:"turnover,omitempty"`
}

// OperationHours horaires d'ouverture
type OperationHours struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// OperationInfo informations d'exploitation
type OperationInfo struct {
	MonthsBusiness *int            `json:"months_business,omitempty"`
	ClosedDays     []string        `json:"closed_days"`
	Hours          *OperationHours `json:"hours,omitempty"`
}

// Goals objectifs déclarés par le commerçant
type Goals struct {
	GrowthTarget []string `json:"growth_target"`
	ProblemArea  []string `json:"problem_area"`
}

// Extras informations optionnelles stockées en bloc
type Extras struct {
	FixedCost *FixedCost     `json:"fixed_cost,omitempty"`
	Delivery  *DeliveryInfo  `json:"delivery,omitempty"`
	Menus     *MenuInfo      `json:"menus,omitempty"`
	Scale     *StoreScale    `json:"scale,omitempty"`
	Operation *OperationInfo `json:"operation,omitempty"`
	Goals     *Goals         `json:"goals,omitempty"`
}

// StoreProfile fiche magasin d'un commerçant (une par compte)
type StoreProfile struct {
	UserID       string     `json:"user_id"`
	SectorCode   string     `json:"sector_code"`
	SectorName   string     `json:"sector_name"`
	SectorCodeCS string     `json:"sector_code_cs"`
	Location     Location   `json:"location"`
	SalesLogs    []SalesLog `json:"sales_logs"`
	Extras
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate vérifie les invariants de la fiche avant enregistrement.
// Les mois illisibles ne sont pas rejetés ici: le calcul d'analyse applique sa propre politique.
func (p *StoreProfile) Validate() error {
	var problems []string
	if strings.TrimSpace(p.SectorCode) == "" {
		problems = append(problems, "sector_code is required")
	}
	if strings.TrimSpace(p.SectorCodeCS) == "" {
		problems = append(problems, "sector_code_cs is required")
	}
	if strings.TrimSpace(p.Location.Address) == "" {
		problems = append(problems, "location.address is required")
	}

	seen := make(map[string]bool, len(p.SalesLogs))
	for _, log := range p.SalesLogs {
		if log.Revenue < 0 {
			problems = append(problems, fmt.Sprintf("sales_logs[%s]: revenue cannot be negative", log.YearMonth))
		}
		key := log.YearMonth
		if ym, err := shareddomain.ParseYearMonth(log.YearMonth); err == nil {
			key = ym.String()
		}
		if seen[key] {
			problems = append(problems, fmt.Sprintf("sales_logs[%s]: duplicate month", log.YearMonth))
		}
		seen[key] = true
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(problems, "; "))
	}
	return nil
}

// SortSalesLogs trie les ventes par mois croissant
func (p *StoreProfile) SortSalesLogs() {
	key := func(raw string) string {
		if ym, err := shareddomain.ParseYearMonth(raw); err == nil {
			return ym.String()
		}
		return raw
	}
	sort.SliceStable(p.SalesLogs, func(i, j int) bool {
		return key(p.SalesLogs[i].YearMonth) < key(p.SalesLogs[j].YearMonth)
	})
}

// Quarters retourne les codes trimestre distincts couverts par les ventes lisibles
func (p *StoreProfile) Quarters() []string {
	seen := make(map[string]bool)
	var out []string
	for _, log := range p.SalesLogs {
		ym, err := shareddomain.ParseYearMonth(log.YearMonth)
		if err != nil {
			continue
		}
		q := fmt.Sprintf("%04d%d", ym.Year(), ym.Quarter())
		if !seen[q] {
			seen[q] = true
			out = append(out, q)
		}
	}
	sort.Strings(out)
	return out
}
