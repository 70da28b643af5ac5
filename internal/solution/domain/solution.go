package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNoSolutions la génération n'a produit aucune recommandation exploitable
var ErrNoSolutions = errors.New("no solutions generated")

// Valeurs de repli pour un élément incomplet
const (
	untitled   = "제목 없음"
	emptyBody  = "내용 없음"
	fenceStart = "```json"
	fence      = "```"
)

// Draft une recommandation générée, avant enregistrement
type Draft struct {
	Title    string `json:"title"`
	Solution string `json:"solution"`
}

// Solution une recommandation enregistrée
type Solution struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Title     string    `json:"title"`
	Solution  string    `json:"solution"`
	Position  int       `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ParseDrafts lit la réponse du modèle: une liste d'objets {title, solution} ou un objet seul,
// éventuellement entourée d'un bloc de code.
func ParseDrafts(text string) ([]Draft, error) {
	cleaned := strings.ReplaceAll(text, fenceStart, "")
	cleaned = strings.ReplaceAll(cleaned, fence, "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil, ErrNoSolutions
	}

	var drafts []Draft
	if strings.HasPrefix(cleaned, "{") {
		var one Draft
		if err := json.Unmarshal([]byte(cleaned), &one); err != nil {
			return nil, eris.Wrap(err, "parse solution object")
		}
		drafts = []Draft{one}
	} else if err := json.Unmarshal([]byte(cleaned), &drafts); err != nil {
		return nil, eris.Wrap(err, "parse solution list")
	}

	out := make([]Draft, 0, len(drafts))
	for _, d := range drafts {
		d.Title = strings.TrimSpace(d.Title)
		d.Solution = strings.TrimSpace(d.Solution)
		if d.Title == "" && d.Solution == "" {
			continue
		}
		if d.Title == "" {
			d.Title = untitled
		}
		if d.Solution == "" {
			d.Solution = emptyBody
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, ErrNoSolutions
	}
	return out, nil
}
