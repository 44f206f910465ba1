package qualification

// Question ids of the default questionnaire.
const (
	QBloodType         = "bloodType"
	QLastDonation      = "lastDonation"
	QWeight            = "weight"
	QAge               = "age"
	QRecentIllness     = "recentIllness"
	QRecentSurgery     = "recentSurgery"
	QTakingMedications = "takingMedications"
	QMedicationList    = "medicationList"
	QRecentVaccination = "recentVaccination"
	QPregnancyStatus   = "pregnancyStatus"
	QTattooOrPiercing  = "tattooOrPiercing"
	QTravelHistory     = "travelHistory"
	QTravelDetails     = "travelDetails"
	QHighRiskBehavior  = "highriskBehavior"
)

// BloodTypeQuestion is the id whose answer is checked against the
// recipient's blood type.
const BloodTypeQuestion = QBloodType

const lastDonationTooRecent = "Less than 8 weeks ago"

// DefaultQuestions returns the standard fourteen-step donor screening.
func DefaultQuestions() *QuestionSet {
	return defaultSet
}

var defaultSet = MustQuestionSet([]Question{
	{
		ID:       QBloodType,
		Kind:     KindSingleSelect,
		Prompt:   "What is your blood type?",
		HelpText: "Your blood type must be compatible with the recipient's needs.",
		Category: "bloodType",
		Options:  []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"},
		Required: true,
	},
	{
		ID:       QLastDonation,
		Kind:     KindSingleSelect,
		Prompt:   "When was your last blood donation?",
		HelpText: "Males must wait 12 weeks and females must wait 16 weeks between donations.",
		Category: "critical",
		Options: []string{
			"Never donated",
			lastDonationTooRecent,
			"8-12 weeks ago",
			"12-16 weeks ago",
			"More than 16 weeks ago",
		},
		Required:               true,
		DisqualifyingAnswers:   []string{lastDonationTooRecent},
		DisqualificationReason: "You must wait at least 8 weeks between blood donations.",
	},
	{
		ID:                     QWeight,
		Kind:                   KindBoolean,
		Prompt:                 "Is your weight at least 50kg (110 pounds)?",
		HelpText:               "Donors must weigh at least 50kg to safely donate blood.",
		Category:               "critical",
		Required:               true,
		DisqualifyingAnswers:   []string{"No"},
		DisqualificationReason: "You must weigh at least 50kg (110 pounds) to donate blood.",
	},
	{
		ID:                     QAge,
		Kind:                   KindBoolean,
		Prompt:                 "Are you between 18 and 65 years old?",
		HelpText:               "First-time donors over 60 may require medical evaluation.",
		Category:               "critical",
		Required:               true,
		DisqualifyingAnswers:   []string{"No"},
		DisqualificationReason: "You must be between 18 and 65 years old to donate blood.",
	},
	{
		ID:                     QRecentIllness,
		Kind:                   KindBoolean,
		Prompt:                 "Have you had a fever, cold, or flu in the past 2 weeks?",
		HelpText:               "Recent illness may affect eligibility.",
		Category:               "critical",
		Required:               true,
		DisqualifyingAnswers:   []string{"Yes"},
		DisqualificationReason: "You must be healthy without recent illness to donate blood.",
	},
	{
		ID:                     QRecentSurgery,
		Kind:                   KindBoolean,
		Prompt:                 "Have you had surgery or dental work in the past 3 months?",
		HelpText:               "Recent procedures may temporarily affect eligibility.",
		Category:               "critical",
		Required:               true,
		DisqualifyingAnswers:   []string{"Yes"},
		DisqualificationReason: "Recent surgery or dental work may temporarily disqualify you from donating.",
	},
	{
		ID:       QTakingMedications,
		Kind:     KindBoolean,
		Prompt:   "Are you currently taking any medications?",
		HelpText: "Some medications may affect donor eligibility.",
		Category: "medical",
		Required: true,
	},
	{
		ID:          QMedicationList,
		Kind:        KindFreeText,
		Prompt:      "Please list all medications you are currently taking.",
		HelpText:    "Include prescription and over-the-counter medications.",
		Category:    "medical",
		VisibleWhen: AnswerIs(QTakingMedications, "Yes"),
	},
	{
		ID:                     QRecentVaccination,
		Kind:                   KindBoolean,
		Prompt:                 "Have you received any vaccines in the past 4 weeks?",
		HelpText:               "Recent vaccinations may temporarily affect eligibility.",
		Category:               "medical",
		Required:               true,
		DisqualifyingAnswers:   []string{"Yes"},
		DisqualificationReason: "Recent vaccinations may temporarily disqualify you from donating.",
	},
	{
		ID:                     QPregnancyStatus,
		Kind:                   KindBoolean,
		Prompt:                 "Are you currently pregnant or have you given birth in the past 6 months?",
		HelpText:               "Pregnancy and recent childbirth affect eligibility.",
		Category:               "medical",
		Required:               true,
		DisqualifyingAnswers:   []string{"Yes"},
		DisqualificationReason: "Pregnancy or recent childbirth temporarily disqualifies you from donating.",
	},
	{
		ID:                     QTattooOrPiercing,
		Kind:                   KindBoolean,
		Prompt:                 "Have you had a tattoo or body piercing in the past 4 months?",
		HelpText:               "Recent tattoos or piercings may affect eligibility.",
		Category:               "critical",
		Required:               true,
		DisqualifyingAnswers:   []string{"Yes"},
		DisqualificationReason: "Recent tattoos or piercings temporarily disqualify you from donating.",
	},
	{
		ID:       QTravelHistory,
		Kind:     KindBoolean,
		Prompt:   "Have you traveled outside your country in the past 6 months?",
		HelpText: "Travel to certain regions may affect eligibility due to disease exposure risk.",
		Category: "risk",
		Required: true,
	},
	{
		ID:          QTravelDetails,
		Kind:        KindFreeText,
		Prompt:      "Please list the countries you visited in the past 6 months.",
		HelpText:    "Some countries may have malaria or other disease risks.",
		Category:    "risk",
		VisibleWhen: AnswerIs(QTravelHistory, "Yes"),
	},
	{
		ID:                     QHighRiskBehavior,
		Kind:                   KindBoolean,
		Prompt:                 "In the past 3 months, have you engaged in behaviors that may increase risk for HIV or hepatitis?",
		HelpText:               "This includes unprotected sex with multiple partners, IV drug use, etc.",
		Category:               "critical",
		Required:               true,
		DisqualifyingAnswers:   []string{"Yes"},
		DisqualificationReason: "Recent high-risk behaviors may temporarily disqualify you from donating.",
	},
})
