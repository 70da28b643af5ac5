package domain

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func validProfile() *StoreProfile {
	return &StoreProfile{
		SectorCode:   "I21201",
		SectorName:   "카페",
		SectorCodeCS: "CS100010",
		Location:     Location{Address: "서울 강남구 테헤란로 152"},
		SalesLogs: []SalesLog{
			{YearMonth: "2025-07", Revenue: 10_000_000, Profit: 2_000_000},
			{YearMonth: "2025-06", Revenue: 9_000_000, Profit: 1_500_000},
		},
	}
}

func TestStoreProfile_Validate(t *testing.T) {
	if err := validProfile().Validate(); err != nil {
		t.Fatalf("valid profile rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(p *StoreProfile)
		reason string
	}{
		{"missing sector", func(p *StoreProfile) { p.SectorCode = " " }, "sector_code is required"},
		{"missing cs sector", func(p *StoreProfile) { p.SectorCodeCS = "" }, "sector_code_cs is required"},
		{"missing address", func(p *StoreProfile) { p.Location.Address = "" }, "location.address is required"},
		{"negative revenue", func(p *StoreProfile) { p.SalesLogs[0].Revenue = -1 }, "revenue cannot be negative"},
		{"duplicate month", func(p *StoreProfile) { p.SalesLogs[1].YearMonth = "2025-07" }, "duplicate month"},
		{"duplicate month in compact form", func(p *StoreProfile) { p.SalesLogs[1].YearMonth = "202507" }, "duplicate month"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(p)
			err := p.Validate()
			if !errors.Is(err, ErrInvalidProfile) {
				t.Fatalf("err = %v, want ErrInvalidProfile", err)
			}
			if !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("err = %v, want reason %q", err, tt.reason)
			}
		})
	}
}

func TestStoreProfile_ValidateKeepsMalformedMonths(t *testing.T) {
	p := validProfile()
	p.SalesLogs = append(p.SalesLogs, SalesLog{YearMonth: "2025/05", Revenue: 1})
	if err := p.Validate(); err != nil {
		t.Errorf("malformed month should be left to the analysis: %v", err)
	}
}

func TestStoreProfile_SortAndQuarters(t *testing.T) {
	p := validProfile()
	p.SalesLogs = append(p.SalesLogs,
		SalesLog{YearMonth: "2024-12", Revenue: 1},
		SalesLog{YearMonth: "garbage", Revenue: 1},
	)

	p.SortSalesLogs()
	if p.SalesLogs[0].YearMonth != "2024-12" || p.SalesLogs[2].YearMonth != "2025-07" {
		t.Errorf("sorted = %+v", p.SalesLogs)
	}

	if got := p.Quarters(); !reflect.DeepEqual(got, []string{"20244", "20252", "20253"}) {
		t.Errorf("Quarters() = %v", got)
	}
}

func TestSalesLog_RevenueMoney(t *testing.T) {
	m, err := SalesLog{YearMonth: "2025-07", Revenue: 1_234}.RevenueMoney()
	if err != nil || m.Won() != 1_234 {
		t.Errorf("RevenueMoney() = %v, %v", m.Won(), err)
	}
	if _, err := (SalesLog{Revenue: -1}).RevenueMoney(); err == nil {
		t.Error("negative revenue should not convert")
	}
}

func TestStoreProfile_SortMixedForms(t *testing.T) {
	p := &StoreProfile{SalesLogs: []SalesLog{
		{YearMonth: "202507"},
		{YearMonth: "2025-06"},
		{YearMonth: "202412"},
	}}

	p.SortSalesLogs()
	got := []string{p.SalesLogs[0].YearMonth, p.SalesLogs[1].YearMonth, p.SalesLogs[2].YearMonth}
	if !reflect.DeepEqual(got, []string{"202412", "2025-06", "202507"}) {
		t.Errorf("sorted = %v", got)
	}
}
