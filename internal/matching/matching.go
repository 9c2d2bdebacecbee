// Package matching implements skill matching between a parsed job description
// and a structured resume. Everything here is pure computation; the one
// semantic escalation to the generator lives in the workflow stage.
package matching

import (
	"math"
	"strings"

	"github.com/jonathan/resume-tailor/internal/types"
)

// Weights for the blended final score
const (
	mustHaveWeight   = 0.7
	niceToHaveWeight = 0.3
)

// Normalize lowercases and trims skills, dropping empties and duplicates.
// First-seen order is preserved so results are deterministic.
func Normalize(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// FlattenResumeSkills collects every skill across all resume categories into
// one normalized list.
func FlattenResumeSkills(categories []types.SkillCategory) []string {
	var all []string
	for _, category := range categories {
		all = append(all, category.Skills...)
	}
	return Normalize(all)
}

// Partition splits normalized requested skills into those present in the
// resume set and those absent. Every requested skill lands in exactly one
// of the two lists.
func Partition(requested, resume []string) (matched, missing []string) {
	resumeSet := make(map[string]bool, len(resume))
	for _, s := range resume {
		resumeSet[s] = true
	}
	matched = make([]string, 0, len(requested))
	missing = make([]string, 0, len(requested))
	for _, s := range requested {
		if resumeSet[s] {
			matched = append(matched, s)
		} else {
			missing = append(missing, s)
		}
	}
	return matched, missing
}

// Promote moves skills the semantic matcher reported as covered from missing
// to matched. Promotions not present in the missing list are ignored, so a
// hallucinated skill can never enter the result.
func Promote(matched, missing, promoted []string) (newMatched, newMissing []string) {
	promotedSet := make(map[string]bool, len(promoted))
	for _, s := range Normalize(promoted) {
		promotedSet[s] = true
	}
	newMatched = append([]string(nil), matched...)
	newMissing = make([]string, 0, len(missing))
	for _, s := range missing {
		if promotedSet[s] {
			newMatched = append(newMatched, s)
		} else {
			newMissing = append(newMissing, s)
		}
	}
	return newMatched, newMissing
}

// Score returns matched/requested, guarding against an empty request list.
// The ratio is not rounded; callers round when storing.
func Score(matched, requested int) float64 {
	if requested < 1 {
		requested = 1
	}
	return float64(matched) / float64(requested)
}

// FinalScore blends the per-tier coverage ratios into one score.
func FinalScore(mustHave, niceToHave float64) float64 {
	return round3(mustHaveWeight*mustHave + niceToHaveWeight*niceToHave)
}

// Result assembles a SkillMatchResult from the final partitions.
func Result(matchedMust, missingMust, matchedNice, missingNice []string) types.SkillMatchResult {
	mustScore := Score(len(matchedMust), len(matchedMust)+len(missingMust))
	niceScore := Score(len(matchedNice), len(matchedNice)+len(missingNice))
	return types.SkillMatchResult{
		MatchedMustHave:   matchedMust,
		MissingMustHave:   missingMust,
		MatchedNiceToHave: matchedNice,
		MissingNiceToHave: missingNice,
		MustHaveScore:     round3(mustScore),
		NiceToHaveScore:   round3(niceScore),
		FinalScore:        FinalScore(mustScore, niceScore),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
