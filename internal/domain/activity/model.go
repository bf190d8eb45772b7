package activity

// Mode selects how an activity's original amount or duration maps to day-equivalents.
type Mode string

const (
	ModeRate             Mode = "tariffa"
	ModeHours            Mode = "ore"
	ModeCollaboratorRate Mode = "tariffa_collaboratore"
)

// Valid reports whether m is a known calculation mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeRate, ModeHours, ModeCollaboratorRate:
		return true
	}
	return false
}

// DefaultHoursPerDay applies when a project has no usable hours-per-day setting.
const DefaultHoursPerDay = 8

// Billing is the project configuration the calculation engine depends on.
type Billing struct {
	DailyRate         float64
	HoursPerDay       float64
	Mode              Mode
	CollaboratorRates map[string]float64
}

func (b Billing) mode() Mode {
	if b.Mode == "" {
		return ModeRate
	}
	return b.Mode
}

func (b Billing) hoursPerDay() float64 {
	if b.HoursPerDay <= 0 {
		return DefaultHoursPerDay
	}
	return b.HoursPerDay
}

// Original is the snapshot of an activity as it was imported. It never changes after the
// first import of its hash.
type Original struct {
	Client       string  `json:"client"`
	Task         string  `json:"task"`
	Date         string  `json:"date"`
	Collaborator string  `json:"collaborator"`
	ReasonCode   string  `json:"reason_code"`
	Description  string  `json:"description"`
	Duration     string  `json:"duration"`
	Amount       float64 `json:"amount"`
}

// Field names a text field that can be overridden.
type Field string

const (
	FieldDate         Field = "date"
	FieldTask         Field = "task"
	FieldCollaborator Field = "collaborator"
	FieldDescription  Field = "description"
	FieldDuration     Field = "duration"
)

// Fields lists every overridable field in display order.
var Fields = []Field{FieldDate, FieldTask, FieldCollaborator, FieldDescription, FieldDuration}

// FieldOverrides holds the manually edited text fields. A nil pointer means the field
// shows its original value.
type FieldOverrides struct {
	Date         *string `json:"date,omitempty"`
	Task         *string `json:"task,omitempty"`
	Collaborator *string `json:"collaborator,omitempty"`
	Description  *string `json:"description,omitempty"`
	Duration     *string `json:"duration,omitempty"`
}

func (o *FieldOverrides) slot(f Field) **string {
	switch f {
	case FieldDate:
		return &o.Date
	case FieldTask:
		return &o.Task
	case FieldCollaborator:
		return &o.Collaborator
	case FieldDescription:
		return &o.Description
	case FieldDuration:
		return &o.Duration
	}
	return nil
}

// Get returns the override for f, if any.
func (o FieldOverrides) Get(f Field) (string, bool) {
	p := o.slot(f)
	if p == nil || *p == nil {
		return "", false
	}
	return **p, true
}

// Empty reports whether no field is overridden.
func (o FieldOverrides) Empty() bool {
	return o.Date == nil && o.Task == nil && o.Collaborator == nil && o.Description == nil && o.Duration == nil
}

// Record is the persisted state of one activity within a monthly report.
type Record struct {
	Original               Original       `json:"original"`
	ClusterID              string         `json:"cluster_id,omitempty"`
	DayEquivalentsOverride *float64       `json:"day_equivalents_override,omitempty"`
	Overrides              FieldOverrides `json:"overrides"`
}

// Modified reports whether the record carries any manual edit.
func (r Record) Modified() bool {
	return r.DayEquivalentsOverride != nil || !r.Overrides.Empty()
}

// Reference holds the values computed from the original data, kept alongside a modified
// activity so it can be displayed and restored.
type Reference struct {
	DayEquivalents float64 `json:"day_equivalents"`
	Hours          float64 `json:"hours"`
	BillableAmount float64 `json:"billable_amount"`
}

// Activity is the runtime projection of a Record with its computed quantities.
type Activity struct {
	Hash      string         `json:"hash"`
	Original  Original       `json:"original"`
	ClusterID string         `json:"cluster_id,omitempty"`
	Overrides FieldOverrides `json:"overrides"`

	DayEquivalents float64 `json:"day_equivalents"`
	Hours          float64 `json:"hours"`
	BillableAmount float64 `json:"billable_amount"`

	IsNew        bool `json:"is_new"`
	IsModified   bool `json:"is_modified"`
	HasRateError bool `json:"has_rate_error"`

	// Reference is set while the activity is modified.
	Reference *Reference `json:"reference,omitempty"`

	dayOverride bool
}

// Value returns the current value of a text field, override first.
func (a *Activity) Value(f Field) string {
	if v, ok := a.Overrides.Get(f); ok {
		return v
	}
	switch f {
	case FieldDate:
		return a.Original.Date
	case FieldTask:
		return a.Original.Task
	case FieldCollaborator:
		return a.Original.Collaborator
	case FieldDescription:
		return a.Original.Description
	case FieldDuration:
		return a.Original.Duration
	}
	return ""
}

// Collaborator is shorthand for Value(FieldCollaborator).
func (a *Activity) Collaborator() string {
	return a.Value(FieldCollaborator)
}

// HasDayOverride reports whether the day-equivalents were set manually.
func (a *Activity) HasDayOverride() bool {
	return a.dayOverride
}

// Record converts the activity back to its persisted form.
func (a *Activity) Record() Record {
	rec := Record{
		Original:  a.Original,
		ClusterID: a.ClusterID,
		Overrides: a.Overrides,
	}
	if a.dayOverride {
		v := a.DayEquivalents
		rec.DayEquivalentsOverride = &v
	}
	return rec
}

// FromRecord rebuilds an activity from its persisted record under the given billing
// configuration.
func FromRecord(hash string, rec Record, b Billing) Activity {
	a := Activity{
		Hash:      hash,
		Original:  rec.Original,
		ClusterID: rec.ClusterID,
		Overrides: rec.Overrides,
	}
	base := Compute(rec.Original, b)
	a.HasRateError = base.RateError
	a.set(base.DayEquivalents, base.Hours, b)
	if rec.DayEquivalentsOverride != nil {
		a.Reference = a.reference()
		a.dayOverride = true
		a.setDays(*rec.DayEquivalentsOverride, b)
	}
	if !rec.Overrides.Empty() && a.Reference == nil {
		a.Reference = a.reference()
	}
	a.IsModified = rec.Modified()
	return a
}
