package database

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bizit/internal/reference/infrastructure"
	shareddomain "bizit/internal/shared/domain"
)

// SeedDatabase crée le commerçant de démonstration avec months mois de ventes
func SeedDatabase(m DemoMerchant, months int, now time.Time) error {
	fmt.Println("🌱 Création du compte de démonstration...")
	if err := seedUser(m, now); err != nil {
		return fmt.Errorf("erreur création compte: %w", err)
	}

	fmt.Println("🌱 Création de la fiche magasin...")
	if err := seedStore(m, now); err != nil {
		return fmt.Errorf("erreur création magasin: %w", err)
	}

	fmt.Printf("🌱 Génération de %d mois de ventes...\n", months)
	if err := seedSalesLogs(m.Email, months, now); err != nil {
		return fmt.Errorf("erreur génération ventes: %w", err)
	}
	return nil
}

func seedUser(m DemoMerchant, now time.Time) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(m.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = DB.Exec(`
		INSERT INTO users (user_email, password_hash, biz_name, user_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_email) DO UPDATE SET
			password_hash = excluded.password_hash,
			biz_name = excluded.biz_name,
			user_name = excluded.user_name
	`, m.Email, string(hash), m.BizName, m.UserName, now)
	return err
}

func seedStore(m DemoMerchant, now time.Time) error {
	_, err := DB.Exec(`
		INSERT INTO stores (user_id, sector_code, sector_name, sector_code_cs, address, detail_address,
		                    lat, lng, admin_code, admin_dong_name, extras, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			sector_code = excluded.sector_code,
			sector_name = excluded.sector_name,
			sector_code_cs = excluded.sector_code_cs,
			address = excluded.address,
			lat = excluded.lat,
			lng = excluded.lng,
			admin_code = excluded.admin_code,
			admin_dong_name = excluded.admin_dong_name,
			updated_at = excluded.updated_at
	`, m.Email, m.SectorCode, m.SectorName, m.SectorCodeCS, m.Address, "",
		m.Lat, m.Lng, m.AdminCode, m.DongName, "{}", now)
	return err
}

// seedSalesLogs remplace les ventes: tendance légèrement croissante avec +/- 10% de bruit
func seedSalesLogs(userID string, months int, now time.Time) error {
	if _, err := DB.Exec("DELETE FROM sales_logs WHERE user_id = $1", userID); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(42))
	current, err := shareddomain.NewYearMonth(now.Year(), int(now.Month()))
	if err != nil {
		return err
	}
	first := current.AddMonths(-months)
	base := 95_000_000.0

	for i := 0; i < months; i++ {
		month := first.AddMonths(i)
		revenue := int64(base * (1 + 0.01*float64(i)) * (0.9 + rng.Float64()*0.2))
		profit := revenue * int64(15+rng.Intn(10)) / 100

		_, err := DB.Exec(`
			INSERT INTO sales_logs (user_id, ym, revenue, profit, details)
			VALUES ($1, $2, $3, $4, $5)
		`, userID, month.String(), revenue, profit, nil)
		if err != nil {
			return err
		}
	}

	fmt.Printf("   ✅ %d mois de ventes créés\n", months)
	return nil
}

// WriteSampleReference écrit des jeux de référence d'exemple s'ils n'existent pas encore.
// Les trimestres couvrent les quarters derniers trimestres terminés avant now.
func WriteSampleReference(salesPath, populationPath string, quarters int, now time.Time) error {
	codes := sampleQuarters(quarters, now)
	rng := rand.New(rand.NewSource(7))

	cols := infrastructure.DefaultSalesColumns()
	sales := [][]string{{cols.Quarter, cols.District, "행정동_코드_명", cols.Sector, cols.Revenue}}

	sectors := make([]string, 0, len(SampleSectors()))
	for code := range SampleSectors() {
		sectors = append(sectors, code)
	}
	sort.Strings(sectors)

	for _, q := range codes {
		for _, d := range SampleDistricts() {
			for _, sector := range sectors {
				monthly := SampleSectors()[sector] * d.Scale * (0.9 + rng.Float64()*0.2)
				sales = append(sales, []string{q, d.Code, d.Name, sector, strconv.FormatInt(int64(monthly), 10)})
			}
		}
	}
	if err := writeIfAbsent(salesPath, sales); err != nil {
		return err
	}

	pcols := infrastructure.DefaultPopulationColumns()
	population := [][]string{{pcols.Quarter, pcols.District, pcols.FootTraffic, pcols.Income, pcols.Expenditure}}
	for _, q := range codes {
		for _, d := range SampleDistricts() {
			population = append(population, []string{
				q, d.Code,
				strconv.Itoa(int(800_000 * d.Scale * (0.9 + rng.Float64()*0.2))),
				strconv.Itoa(int(3_500_000 * d.Scale)),
				strconv.Itoa(int(40_000_000_000 * d.Scale * (0.9 + rng.Float64()*0.2))),
			})
		}
	}
	return writeIfAbsent(populationPath, population)
}

// sampleQuarters les n derniers trimestres publiés (le trimestre en cours n'est pas encore publié)
func sampleQuarters(n int, now time.Time) []string {
	year, quarter := now.Year(), (int(now.Month())-1)/3
	if quarter == 0 {
		year, quarter = year-1, 4
	}

	codes := make([]string, n)
	for i := n - 1; i >= 0; i-- {
		codes[i] = fmt.Sprintf("%04d%d", year, quarter)
		quarter--
		if quarter == 0 {
			year, quarter = year-1, 4
		}
	}
	return codes
}

func writeIfAbsent(path string, rows [][]string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("   ↪ %s existe déjà, conservé\n", path)
		return nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return err
	}
	fmt.Printf("   ✅ %s écrit (%d lignes)\n", path, len(rows)-1)
	return nil
}
