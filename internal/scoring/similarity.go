package scoring

import (
	"strings"
)

// Similarity renvoie un score de similarité [0,1] entre deux sujets de ticket,
// basé sur la distance d'édition normalisée. La comparaison ignore la casse et
// les espaces superflus : "Server is down" et "server is down " valent 1.0.
func Similarity(a, b string) float64 {
	na := normalizeSubject(a)
	nb := normalizeSubject(b)

	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}

	ra := []rune(na)
	rb := []rune(nb)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}

	dist := levenshtein(ra, rb)
	return 1.0 - float64(dist)/float64(maxLen)
}

func normalizeSubject(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// levenshtein calcule la distance d'édition avec deux lignes glissantes,
// sans allouer la matrice complète.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost

			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
