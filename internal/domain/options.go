package domain

// Dimension names a filterable axis of the forecast dataset
type Dimension string

const (
	DimYear            Dimension = "year"
	DimForecastType    Dimension = "forecast_type"
	DimRegion          Dimension = "region"
	DimSourceCountry   Dimension = "source_country"
	DimStatus          Dimension = "status"
	DimVertical        Dimension = "vertical"
	DimCurrency        Dimension = "currency"
	DimDisplayCurrency Dimension = "display_currency"
	DimCustomerGroup   Dimension = "customer_group"
	DimCustomerName    Dimension = "customer_name"
	DimCluster         Dimension = "cluster"
	DimManager         Dimension = "manager"
)

// SelectAll is the sentinel meaning a dimension is unfiltered
const SelectAll = "all"

// OptionKind distinguishes plain string options from entity-backed ones
type OptionKind string

const (
	OptionScalar OptionKind = "scalar"
	OptionEntity OptionKind = "entity"
)

// Option is one selectable value for a filter dimension. Scalar options
// carry only a name; entity options additionally carry the identifier the
// selection is matched against.
type Option struct {
	Kind OptionKind `json:"kind"`
	ID   string     `json:"id,omitempty"`
	Name string     `json:"name"`
}

// ScalarOption builds an option for a plain string value
func ScalarOption(value string) Option {
	return Option{Kind: OptionScalar, Name: value}
}

// EntityOption builds an option for an entity reference
func EntityOption(ref EntityRef) Option {
	return Option{Kind: OptionEntity, ID: ref.ID, Name: ref.Name}
}

// SelectionValue returns the string a selection stores for this option:
// the ID for entity options, the name for scalar ones.
func (o Option) SelectionValue() string {
	if o.Kind == OptionEntity {
		return o.ID
	}
	return o.Name
}

// Selection holds the current value of every filter dimension.
// Dimensions absent from the map are treated as unfiltered.
type Selection map[Dimension]string

// Get returns the selected value for a dimension, defaulting to SelectAll
func (s Selection) Get(dim Dimension) string {
	if v, ok := s[dim]; ok && v != "" {
		return v
	}
	return SelectAll
}

// IsAll reports whether a dimension is unfiltered
func (s Selection) IsAll(dim Dimension) bool {
	return s.Get(dim) == SelectAll
}

// With returns a copy of the selection with one dimension replaced
func (s Selection) With(dim Dimension, value string) Selection {
	out := make(Selection, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[dim] = value
	return out
}

// Clone returns an independent copy of the selection
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
