package service

import (
	"math/rand/v2"
	"time"

	"github.com/aliskhannn/rvt-exam/internal/domain/entities"
)

// QuestionSelector composes exams from a question bank.
// It is not safe for concurrent use.
type QuestionSelector struct {
	rng *rand.Rand
}

// NewQuestionSelector creates a new QuestionSelector.
// A nil rng selects a time-seeded source.
func NewQuestionSelector(rng *rand.Rand) *QuestionSelector {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &QuestionSelector{rng: rng}
}

// ComposeFull selects a weighted full exam and applies the image backfill.
func (s *QuestionSelector) ComposeFull(
	bank []entities.Question,
	plan entities.SelectionPlan,
	backfill entities.BackfillPlan,
	total int,
) []entities.Question {
	selected := s.SelectWeighted(bank, plan, total)
	return s.BackfillImages(selected, bank, backfill)
}

// SelectWeighted draws floor(total*percent/100) questions per plan entry,
// capped at the classification's pool size, then fills any shortfall from
// the rest of the bank and shuffles the result.
func (s *QuestionSelector) SelectWeighted(
	bank []entities.Question,
	plan entities.SelectionPlan,
	total int,
) []entities.Question {
	if total <= 0 || len(bank) == 0 {
		return []entities.Question{}
	}

	pools := partitionByClassification(bank)
	used := make(map[int]struct{}, total)
	picked := make([]int, 0, total)

	// 1. Sample each classification's quota in plan order.
	for _, quota := range plan {
		pool := pools[quota.Classification]
		want := min(quota.Target(total), len(pool))
		for _, j := range s.sample(len(pool), want) {
			idx := pool[j]
			if _, ok := used[idx]; ok {
				continue
			}
			used[idx] = struct{}{}
			picked = append(picked, idx)
		}
	}

	// 2. Rounding and short pools leave a gap; fill it from anything not yet taken.
	if missing := total - len(picked); missing > 0 {
		rest := make([]int, 0, len(bank)-len(picked))
		for i := range bank {
			if _, ok := used[i]; !ok {
				rest = append(rest, i)
			}
		}
		for _, j := range s.sample(len(rest), min(missing, len(rest))) {
			used[rest[j]] = struct{}{}
			picked = append(picked, rest[j])
		}
	}

	out := make([]entities.Question, 0, len(picked))
	for _, idx := range picked {
		out = append(out, bank[idx])
	}
	s.shuffle(out)
	return out
}

// BackfillImages swaps image-less selected questions for image-bearing bank
// questions of the same classification until each plan target is met or
// either side runs out. The input slice is not modified.
func (s *QuestionSelector) BackfillImages(
	selected []entities.Question,
	bank []entities.Question,
	plan entities.BackfillPlan,
) []entities.Question {
	out := append([]entities.Question(nil), selected...)

	inUse := make(map[string]struct{}, len(out))
	for _, q := range out {
		inUse[q.Key()] = struct{}{}
	}

	for _, target := range plan {
		if target.Count <= 0 {
			continue
		}

		var victims []int
		for i, q := range out {
			if classificationOf(q) == target.Classification && !q.HasImage() {
				victims = append(victims, i)
			}
		}

		var candidates []int
		for i, q := range bank {
			if classificationOf(q) != target.Classification || !q.HasImage() {
				continue
			}
			if _, ok := inUse[q.Key()]; ok {
				continue
			}
			candidates = append(candidates, i)
		}

		s.shuffleInts(victims)
		s.shuffleInts(candidates)

		for swapped := 0; swapped < target.Count && len(victims) > 0 && len(candidates) > 0; swapped++ {
			v := victims[len(victims)-1]
			victims = victims[:len(victims)-1]
			c := candidates[len(candidates)-1]
			candidates = candidates[:len(candidates)-1]

			delete(inUse, out[v].Key())
			out[v] = bank[c]
			inUse[bank[c].Key()] = struct{}{}
		}
	}

	return out
}

// ShuffleOptions returns a copy of q with its options in a fresh random order.
func (s *QuestionSelector) ShuffleOptions(q entities.Question) entities.Question {
	options := append([]string(nil), q.Options...)
	s.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	return q.WithOptions(options)
}

// SelectShort draws min(total, len(bank)) questions uniformly without replacement.
func (s *QuestionSelector) SelectShort(bank []entities.Question, total int) []entities.Question {
	if total <= 0 {
		return []entities.Question{}
	}
	idx := s.sample(len(bank), min(total, len(bank)))
	out := make([]entities.Question, 0, len(idx))
	for _, i := range idx {
		out = append(out, bank[i])
	}
	return out
}

// sample returns k distinct indices in [0, n) in random order.
func (s *QuestionSelector) sample(n, k int) []int {
	if k <= 0 || n <= 0 {
		return nil
	}
	return s.rng.Perm(n)[:k]
}

func (s *QuestionSelector) shuffle(qs []entities.Question) {
	s.rng.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
}

func (s *QuestionSelector) shuffleInts(in []int) {
	s.rng.Shuffle(len(in), func(i, j int) { in[i], in[j] = in[j], in[i] })
}

// partitionByClassification maps each classification to its bank indices.
func partitionByClassification(bank []entities.Question) map[string][]int {
	pools := make(map[string][]int)
	for i, q := range bank {
		c := classificationOf(q)
		pools[c] = append(pools[c], i)
	}
	return pools
}

func classificationOf(q entities.Question) string {
	if q.Classification == "" {
		return entities.DefaultClassification
	}
	return q.Classification
}
