package middlewares

var Responses = struct {
	FailedValidations   *NewRM
	InternalServerError *NewRM
	UserNotFound        *NewRM
	InvalidRoles        *NewRM
	SoundNotFound       *NewRM
	EventNotFound       *NewRM
	PaymentNotFound     *NewRM
	PaymentAlreadyPaid  *NewRM
	InvalidTransition   *NewRM
}{
	FailedValidations: &NewRM{
		Language.English: "Failed field validations",
		Language.French:  "La validation des champs a échoué",
	},
	InternalServerError: &NewRM{
		Language.English: "Internal server error",
		Language.French:  "Erreur interne du serveur",
	},
	UserNotFound: &NewRM{
		Language.English: "User not found",
		Language.French:  "Utilisateur introuvable",
	},
	InvalidRoles: &NewRM{
		Language.English: "Invalid roles",
		Language.French:  "Vous n'avez pas la permission d'effectuer cette action",
	},
	SoundNotFound: &NewRM{
		Language.English: "Sound not found",
		Language.French:  "Le son n'existe pas",
	},
	EventNotFound: &NewRM{
		Language.English: "Event not found",
		Language.French:  "L'événement n'existe pas",
	},
	PaymentNotFound: &NewRM{
		Language.English: "Payment not found",
		Language.French:  "Le paiement n'existe pas",
	},
	PaymentAlreadyPaid: &NewRM{
		Language.English: "Payment already completed",
		Language.French:  "Le paiement est déjà complété",
	},
	InvalidTransition: &NewRM{
		Language.English: "Invalid payment status transition",
		Language.French:  "Transition de statut de paiement invalide",
	},
}

type NewRM map[string]string

var Language = struct {
	English string
	French  string
}{
	English: "en",
	French:  "fr",
}

var LanguageMap = map[string]string{
	Language.French:  "French",
	Language.English: "English",
}
