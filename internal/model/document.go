package model

// Document types
const (
	DocParentalAuth        = "parental_auth"
	DocCadetDeclaration    = "cadet_declaration"
	DocImageRights         = "image_rights"
	DocMedicalCertificate  = "medical_certificate"
	DocRules               = "rules"
	DocRegistrationSummary = "registration_summary"
	// DocRegistration dossier produced by the single-form registration.
	DocRegistration = "registration"
)

// Document status, derived from the signing flags
const (
	DocStatusPending         = "pending"
	DocStatusSignedCandidate = "signed_candidate"
	DocStatusSignedGuardian  = "signed_guardian"
	DocStatusComplete        = "complete"
)

// SignableDocumentTypes documents both parties sign during step 4, in generation order.
var SignableDocumentTypes = []string{
	DocParentalAuth,
	DocCadetDeclaration,
	DocImageRights,
	DocMedicalCertificate,
	DocRules,
}

// Document generated PDF attached to an application (table documents)
type Document struct {
	DocumentID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                   json:"document_id"`
	ApplicationID    string `gorm:"type:uuid;not null;uniqueIndex:uq_documents_application_type,priority:1" json:"application_id"`
	Filename         string `gorm:"type:varchar(255);not null"                                       json:"filename"`
	OriginalFilename string `gorm:"type:varchar(255);not null"                                       json:"original_filename"`
	FilePath         string `gorm:"type:varchar(512);not null"                                       json:"file_path"`
	DocumentType     string `gorm:"type:varchar(50);not null;uniqueIndex:uq_documents_application_type,priority:2" json:"document_type"`
	Status           string `gorm:"type:varchar(20);not null;default:'pending'"                      json:"status"`
	BaseModel
}

// TableName table name
func (Document) TableName() string { return "documents" }

// IsSignable the document goes through the bilateral signing protocol.
func IsSignable(docType string) bool {
	for _, t := range SignableDocumentTypes {
		if t == docType {
			return true
		}
	}
	return docType == DocRegistration
}

// DocumentTitle French title printed on the PDF.
func DocumentTitle(docType string) string {
	switch docType {
	case DocParentalAuth:
		return "Autorisation Parentale"
	case DocCadetDeclaration:
		return "Déclaration du Cadet"
	case DocImageRights:
		return "Droit à l'Image"
	case DocMedicalCertificate:
		return "Certificat Médical"
	case DocRules:
		return "Règlement ACADEF"
	case DocRegistrationSummary, DocRegistration:
		return "Dossier d'inscription"
	}
	return docType
}

// SignedLabel label used in missing-item lists while the document is unsigned.
func SignedLabel(docType string) string {
	switch docType {
	case DocParentalAuth:
		return "Autorisation parentale signée"
	case DocCadetDeclaration:
		return "Déclaration du cadet signée"
	case DocImageRights:
		return "Droit à l'image signé"
	case DocMedicalCertificate:
		return "Certificat médical signé"
	case DocRules:
		return "Règlement ACADEF signé"
	}
	return DocumentTitle(docType) + " signé"
}
