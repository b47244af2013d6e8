package policy

// Baseline is the generalised health-insurance rule set the audit falls back to
// when no insurer-specific policy is supplied.
type Baseline struct {
	PolicyName    string `yaml:"policy_name" json:"policy_name" validate:"required"`
	EffectiveDate string `yaml:"effective_date" json:"effective_date" validate:"required,datetime=2006-01-02"`

	Eligibility           Eligibility           `yaml:"eligibility" json:"eligibility"`
	WaitingPeriods        WaitingPeriods        `yaml:"waiting_periods" json:"waiting_periods"`
	SubLimits             []SubLimit            `yaml:"sub_limits" json:"sub_limits" validate:"required,unique=Key,dive"`
	Copay                 Copay                 `yaml:"copay" json:"copay"`
	Exclusions            []string              `yaml:"exclusions" json:"exclusions" validate:"required,dive,required"`
	PreExistingConditions PreExistingConditions `yaml:"pre_existing_conditions" json:"pre_existing_conditions"`
	Network               Network               `yaml:"network" json:"network"`

	DeductibleINR        int64   `yaml:"deductible_inr" json:"deductible_inr" validate:"gte=0"`
	SumInsuredOptionsINR []int64 `yaml:"sum_insured_options_inr" json:"sum_insured_options_inr" validate:"required,unique,dive,gt=0"`
	DefaultSumInsuredINR int64   `yaml:"default_sum_insured_inr" json:"default_sum_insured_inr" validate:"gt=0"`
}

type Eligibility struct {
	MinAgeYears int      `yaml:"min_age_years" json:"min_age_years" validate:"gte=0"`
	MaxAgeYears int      `yaml:"max_age_years" json:"max_age_years" validate:"gte=0,gtefield=MinAgeYears"`
	BMIRange    BMIRange `yaml:"bmi_range" json:"bmi_range"`
	Notes       string   `yaml:"notes" json:"notes"`
}

type BMIRange struct {
	Min float64 `yaml:"min" json:"min" validate:"gte=0"`
	Max float64 `yaml:"max" json:"max" validate:"gte=0,gtefield=Min"`
}

type WaitingPeriods struct {
	InitialWaitingDays      int              `yaml:"initial_waiting_days" json:"initial_waiting_days" validate:"gte=0"`
	PreExistingDiseaseYears int              `yaml:"pre_existing_disease_years" json:"pre_existing_disease_years" validate:"gte=0"`
	SpecificIllnessMonths   []IllnessWaiting `yaml:"specific_illness_months" json:"specific_illness_months" validate:"unique=Illness,dive"`
	MaternityMonths         int              `yaml:"maternity_months" json:"maternity_months" validate:"gte=0"`
	Notes                   string           `yaml:"notes" json:"notes"`
}

// IllnessWaiting is one named specific-illness waiting period. The list keeps
// document order, which is also the display order.
type IllnessWaiting struct {
	Illness string `yaml:"illness" json:"illness" validate:"required"`
	Months  int    `yaml:"months" json:"months" validate:"gte=0"`
}

// SubLimit caps one benefit category. AmountINR == 0 means the category is excluded.
type SubLimit struct {
	Key       string `yaml:"key" json:"key" validate:"required"`
	Label     string `yaml:"label" json:"label" validate:"required"`
	AmountINR int64  `yaml:"amount_inr" json:"amount_inr" validate:"gte=0"`
	Per       string `yaml:"per,omitempty" json:"per,omitempty"`
}

func (s SubLimit) Excluded() bool { return s.AmountINR == 0 }

type Copay struct {
	DefaultPercent        int `yaml:"default_copay_percent" json:"default_copay_percent" validate:"gte=0,lte=100"`
	SeniorCitizenPercent  int `yaml:"senior_citizen_copay_percent" json:"senior_citizen_copay_percent" validate:"gte=0,lte=100"`
	SeniorCitizenAgeAbove int `yaml:"senior_citizen_age_above" json:"senior_citizen_age_above" validate:"gte=0"`
	NonNetworkPercent     int `yaml:"non_network_hospital_copay_percent" json:"non_network_hospital_copay_percent" validate:"gte=0,lte=100"`
	PreExistingPercent    int `yaml:"pre_existing_copay_percent" json:"pre_existing_copay_percent" validate:"gte=0,lte=100"`
}

type PreExistingConditions struct {
	Definition         string   `yaml:"definition" json:"definition" validate:"required"`
	CommonPEDs         []string `yaml:"common_peds" json:"common_peds" validate:"dive,required"`
	WaitingPeriodYears int      `yaml:"waiting_period_years" json:"waiting_period_years" validate:"gte=0"`
	Notes              string   `yaml:"notes" json:"notes"`
}

type Network struct {
	CashlessAtNetworkHospitals bool  `yaml:"cashless_at_network_hospitals" json:"cashless_at_network_hospitals"`
	ReimbursementTimelineDays  int   `yaml:"reimbursement_timeline_days" json:"reimbursement_timeline_days" validate:"gte=0"`
	PreAuthRequiredAboveINR    int64 `yaml:"pre_auth_required_above_inr" json:"pre_auth_required_above_inr" validate:"gte=0"`
	PostHospitalisationDays    int   `yaml:"post_hospitalisation_days" json:"post_hospitalisation_days" validate:"gte=0"`
	PreHospitalisationDays     int   `yaml:"pre_hospitalisation_days" json:"pre_hospitalisation_days" validate:"gte=0"`
}
