package model

// IdentityFileKind form field name of an identity upload
type IdentityFileKind string

const (
	IdentityMotivationLetter IdentityFileKind = "motivation_letter"
	IdentityVitalCard        IdentityFileKind = "vital_card_copy"
	IdentityIDCard           IdentityFileKind = "id_card_copy"
	IdentityInsurance        IdentityFileKind = "insurance_certificate"
	IdentityPhoto            IdentityFileKind = "recent_photo"
	IdentityMutualCard       IdentityFileKind = "mutual_card_copy"
)

// IdentityFileKinds every upload kind, required ones first.
var IdentityFileKinds = []IdentityFileKind{
	IdentityMotivationLetter,
	IdentityVitalCard,
	IdentityIDCard,
	IdentityInsurance,
	IdentityPhoto,
	IdentityMutualCard,
}

// RequiredIdentityFiles uploads a candidate must provide before step 4 completes.
var RequiredIdentityFiles = IdentityFileKinds[:5]

// Prefix file name prefix used when storing the upload.
func (k IdentityFileKind) Prefix() string {
	switch k {
	case IdentityMotivationLetter:
		return "motivation"
	case IdentityVitalCard:
		return "vital_card"
	case IdentityIDCard:
		return "id_card"
	case IdentityInsurance:
		return "insurance"
	case IdentityPhoto:
		return "photo"
	case IdentityMutualCard:
		return "mutual_card"
	}
	return string(k)
}

// Label name shown to applicants in missing-item lists.
func (k IdentityFileKind) Label() string {
	switch k {
	case IdentityMotivationLetter:
		return "Lettre de motivation"
	case IdentityVitalCard:
		return "Copie de la carte vitale"
	case IdentityIDCard:
		return "Copie de la carte d'identité"
	case IdentityInsurance:
		return "Attestation d'assurance"
	case IdentityPhoto:
		return "Photo récente"
	case IdentityMutualCard:
		return "Copie de la carte mutuelle"
	}
	return string(k)
}
