package events

// Extras carries broker fields that don't have a first-class slot on
// MDTickEvent/MDBookEvent. Deliberately not a general map[string]any:
// each value is a tagged variant so callers pattern-match on Kind
// instead of type-asserting an empty interface.
type Extras map[string]ExtraValue

// ExtraKind discriminates the variant held by an ExtraValue.
type ExtraKind uint8

const (
	ExtraKindInt ExtraKind = iota
	ExtraKindFloat
	ExtraKindString
	ExtraKindBool
)

// ExtraValue is a tagged union of the scalar types a broker payload field
// can take. Only the field matching Kind is meaningful.
type ExtraValue struct {
	Kind ExtraKind
	I    int64
	F    float64
	S    string
	B    bool
}

func ExtraInt(v int64) ExtraValue    { return ExtraValue{Kind: ExtraKindInt, I: v} }
func ExtraFloat(v float64) ExtraValue { return ExtraValue{Kind: ExtraKindFloat, F: v} }
func ExtraString(v string) ExtraValue { return ExtraValue{Kind: ExtraKindString, S: v} }
func ExtraBool(v bool) ExtraValue    { return ExtraValue{Kind: ExtraKindBool, B: v} }
