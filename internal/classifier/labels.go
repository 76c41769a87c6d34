package classifier

import "fmt"

// Label is an ocular alignment category
type Label string

const (
	Esotropia   Label = "Esotropia"
	Exotropia   Label = "Exotropia"
	Hypertropia Label = "Hypertropia"
	Hypotropia  Label = "Hypotropia"
	Normal      Label = "Normal"
)

// NumLabels is the size of the label enumeration
const NumLabels = 5

// CanonicalOrder is the output index convention of the bundled 224x224 model
var CanonicalOrder = []Label{Esotropia, Exotropia, Hypertropia, Hypotropia, Normal}

// ParseLabel converts a name to a Label
func ParseLabel(s string) (Label, error) {
	for _, l := range CanonicalOrder {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown label: %q", s)
}

// ParseOrder converts configured names into a label ordering. It must be a
// permutation of the five labels.
func ParseOrder(names []string) ([]Label, error) {
	if len(names) != NumLabels {
		return nil, fmt.Errorf("label order has %d entries, want %d", len(names), NumLabels)
	}
	seen := make(map[Label]bool, NumLabels)
	order := make([]Label, 0, NumLabels)
	for _, n := range names {
		l, err := ParseLabel(n)
		if err != nil {
			return nil, err
		}
		if seen[l] {
			return nil, fmt.Errorf("duplicate label: %s", l)
		}
		seen[l] = true
		order = append(order, l)
	}
	return order, nil
}

// Disclaimer accompanies every prediction shown to a user
const Disclaimer = "This is a trained AI model and can produce varying predictions. Please consult an ophthalmologist."
