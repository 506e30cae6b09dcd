package citation

import (
	"regexp"
	"strconv"
	"time"

	"kbqa/internal/textutil"
)

const contextRunes = 200

var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// Label is the advisory quality verdict for an answer's citations.
type Label string

const (
	LabelVerified  Label = "verified"
	LabelPartial   Label = "partial"
	LabelUnchecked Label = "unchecked"
)

// Reference is one [n] marker found in generated text.
type Reference struct {
	Index   int    `json:"index"`
	Offset  int    `json:"offset"`
	Context string `json:"-"`
}

// Status is the outcome for a single marker.
type Status string

const (
	StatusValid     Status = "valid"
	StatusInvalid   Status = "invalid"
	StatusUnchecked Status = "unchecked"
)

// Check is the verdict for one marker.
type Check struct {
	Index   int     `json:"index"`
	Status  Status  `json:"status"`
	Overlap float64 `json:"overlap"`
}

// Result summarizes citation validation.
type Result struct {
	Valid        int     `json:"valid"`
	Invalid      int     `json:"invalid"`
	Unchecked    int     `json:"unchecked"`
	QualityLabel Label   `json:"quality_label"`
	Checks       []Check `json:"checks,omitempty"`
}

// ExtractReferences finds [n] markers and captures up to 200 characters of
// text before each one, with other markers removed.
func ExtractReferences(text string) []Reference {
	matches := markerPattern.FindAllStringSubmatchIndex(text, -1)
	refs := make([]Reference, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		before := []rune(text[:m[0]])
		if len(before) > contextRunes {
			before = before[len(before)-contextRunes:]
		}
		refs = append(refs, Reference{
			Index:   n,
			Offset:  m[0],
			Context: markerPattern.ReplaceAllString(string(before), " "),
		})
	}
	return refs
}

// KeywordOverlap is the Jaccard coefficient of the overlap token sets of a and b.
func KeywordOverlap(a, b string) float64 {
	return textutil.Jaccard(textutil.OverlapTokens(a), textutil.OverlapTokens(b))
}

// Validator checks [n] markers against citation content within a time budget.
type Validator struct {
	enabled    bool
	timeout    time.Duration
	minOverlap float64
	now        func() time.Time
}

// NewValidator creates a validator. Markers whose context overlaps the cited
// passage by at least minOverlap are valid. Once timeout has elapsed the
// remaining markers are reported unchecked.
func NewValidator(enabled bool, timeout time.Duration, minOverlap float64) *Validator {
	return &Validator{
		enabled:    enabled,
		timeout:    timeout,
		minOverlap: minOverlap,
		now:        time.Now,
	}
}

// Validate checks every marker in text against citations. It never fails.
func (v *Validator) Validate(text string, citations []Citation) Result {
	refs := ExtractReferences(text)

	if !v.enabled {
		return Result{Unchecked: len(refs), QualityLabel: LabelUnchecked}
	}
	if len(refs) == 0 {
		if len(citations) > 0 {
			return Result{QualityLabel: LabelPartial}
		}
		return Result{QualityLabel: LabelUnchecked}
	}

	var res Result
	start := v.now()
	for _, ref := range refs {
		if v.timeout > 0 && v.now().Sub(start) > v.timeout {
			res.Unchecked++
			res.Checks = append(res.Checks, Check{Index: ref.Index, Status: StatusUnchecked})
			continue
		}

		if ref.Index < 1 || ref.Index > len(citations) {
			res.Invalid++
			res.Checks = append(res.Checks, Check{Index: ref.Index, Status: StatusInvalid})
			continue
		}

		cited := citations[ref.Index-1]
		content := cited.fullContent
		if content == "" {
			content = cited.Content
		}
		overlap := KeywordOverlap(ref.Context, content)
		status := StatusInvalid
		if overlap >= v.minOverlap {
			status = StatusValid
			res.Valid++
		} else {
			res.Invalid++
		}
		res.Checks = append(res.Checks, Check{Index: ref.Index, Status: status, Overlap: overlap})
	}

	switch {
	case res.Invalid > 0:
		res.QualityLabel = LabelPartial
	case res.Valid > 0:
		res.QualityLabel = LabelVerified
	default:
		res.QualityLabel = LabelUnchecked
	}
	return res
}
