package database

// ============================================================================
// MODÈLES DU SEED - commerçant de démonstration et jeux de référence
// ============================================================================

// DemoMerchant - compte et magasin de démonstration
type DemoMerchant struct {
	Email        string
	Password     string
	BizName      string
	UserName     string
	SectorCode   string
	SectorName   string
	SectorCodeCS string
	Address      string
	Lat          float64
	Lng          float64
	AdminCode    string
	DongName     string
}

// DefaultDemoMerchant - restaurant coréen du quartier 역삼1동
func DefaultDemoMerchant() DemoMerchant {
	return DemoMerchant{
		Email:        "demo@bizit.kr",
		Password:     "demo1234",
		BizName:      "비짓 한식당",
		UserName:     "김데모",
		SectorCode:   "I56111",
		SectorName:   "한식 일반 음식점업",
		SectorCodeCS: "CS100001",
		Address:      "서울 강남구 테헤란로 152",
		Lat:          37.5000263,
		Lng:          127.0365456,
		AdminCode:    "11680640",
		DongName:     "역삼1동",
	}
}

// ReferenceDistrict - district du jeu de référence généré
type ReferenceDistrict struct {
	Code string
	Name string
	// Scale - niveau de ventes relatif du district
	Scale float64
}

// SampleDistricts - districts écrits dans le jeu d'exemple
func SampleDistricts() []ReferenceDistrict {
	return []ReferenceDistrict{
		{Code: "11680640", Name: "역삼1동", Scale: 1.4},
		{Code: "11680650", Name: "역삼2동", Scale: 1.0},
		{Code: "11650510", Name: "서초1동", Scale: 1.1},
		{Code: "11440660", Name: "서교동", Scale: 1.2},
		{Code: "11110515", Name: "청운효자동", Scale: 0.7},
	}
}

// SampleSectors - secteurs de service écrits dans le jeu d'exemple
func SampleSectors() map[string]float64 {
	return map[string]float64{
		"CS100001": 90_000_000, // 한식음식점
		"CS100002": 60_000_000, // 중식음식점
		"CS100010": 45_000_000, // 커피-음료
	}
}
