package domain

import "github.com/shopspring/decimal"

// Grade palier de classement d'un commerçant par rapport au benchmark
type Grade string

const (
	GradeTop      Grade = "TOP"
	GradeHigh     Grade = "HIGH"
	GradeUpperMid Grade = "UPPER_MID"
	GradeMid      Grade = "MID"
	GradeLow      Grade = "LOW"
	GradeBottom   Grade = "BOTTOM"
)

type percentileTier struct {
	minRatio decimal.Decimal
	grade    Grade
}

// Seuils évalués de haut en bas, le premier atteint l'emporte
var percentileTiers = []percentileTier{
	{minRatio: decimal.RequireFromString("1.30"), grade: GradeTop},
	{minRatio: decimal.RequireFromString("1.15"), grade: GradeHigh},
	{minRatio: decimal.RequireFromString("1.05"), grade: GradeUpperMid},
	{minRatio: decimal.RequireFromString("0.95"), grade: GradeMid},
	{minRatio: decimal.RequireFromString("0.80"), grade: GradeLow},
}

// Libellés éditoriaux affichés tels quels, sans lien calculé avec le ratio
var gradeLabels = map[Grade]string{
	GradeTop:      "상위 10~15%",
	GradeHigh:     "상위 20~30%",
	GradeUpperMid: "상위 30~40%",
	GradeMid:      "평균 수준",
	GradeLow:      "하위 30~40%",
	GradeBottom:   "하위 10~20%",
}

// ClassifyRatio retourne le palier correspondant au ratio ventes / benchmark
func ClassifyRatio(ratio decimal.Decimal) Grade {
	for _, tier := range percentileTiers {
		if ratio.GreaterThanOrEqual(tier.minRatio) {
			return tier.grade
		}
	}
	return GradeBottom
}

// Label retourne le libellé d'affichage du palier
func (g Grade) Label() string {
	return gradeLabels[g]
}
