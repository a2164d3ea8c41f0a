package service

import (
	"fmt"
	"strings"
	"time"

	"acadef/backend/internal/model"
	"acadef/backend/pkg/pdf"
)

const academyName = "Académie des Cadets de la Défense"

// legalText two lines printed under the candidate identity
var legalText = map[string][2]string{
	model.DocParentalAuth: {
		"Je, soussigné(e), ________________________, tuteur légal de l'enfant nommé ci-dessus,",
		"autorise sa participation aux activités de l'" + academyName + ".",
	},
	model.DocCadetDeclaration: {
		"Je, soussigné(e), ________________________, m'engage à respecter les règles",
		"et à participer activement aux activités de l'" + academyName + ".",
	},
	model.DocImageRights: {
		"J'autorise l'" + academyName + " à utiliser des images ou vidéos",
		"sur lesquelles figure le cadet pour la communication de l'académie.",
	},
	model.DocMedicalCertificate: {
		"Ce document atteste que le cadet est apte à participer aux activités sportives",
		"et aux activités collectives de l'" + academyName + ".",
	},
	model.DocRules: {
		"J'ai pris connaissance du règlement intérieur de l'" + academyName,
		"et m'engage à le respecter en tous points.",
	},
	model.DocRegistration: {
		"Nous certifions l'exactitude des informations fournies lors de l'inscription",
		"et demandons l'admission du candidat à l'" + academyName + ".",
	},
}

// renderSignable writes the one-page document both parties sign.
func renderSignable(r pdf.Renderer, path, docType string, cand *model.Candidate, now time.Time) error {
	c, err := r.NewCanvas(path, pdf.A4)
	if err != nil {
		return err
	}
	w, h := c.Size()

	c.DrawCenteredText(20, model.DocumentTitle(docType), pdf.FontTitle)

	c.DrawText(20, 40, "Nom: "+cand.LastName, pdf.FontBody)
	c.DrawText(20, 45, "Prénom: "+cand.FirstName, pdf.FontBody)
	c.DrawText(20, 50, "Date de naissance: "+formatDate(cand.DateOfBirth), pdf.FontBody)

	if lines, ok := legalText[docType]; ok {
		c.DrawText(20, 70, lines[0], pdf.FontBody)
		c.DrawText(20, 75, lines[1], pdf.FontBody)
	}

	c.DrawText(20, 100, "Signature du candidat:", pdf.FontHeading)
	c.DrawText(20, 140, "Signature du tuteur légal:", pdf.FontHeading)

	c.DrawText(w-60, h-10, "Document généré le "+formatDate(now), pdf.FontSmall)

	return c.Save()
}

// ────────────────────── Registration summary ──────────────────────

// SummaryInput everything printed on the registration summary
type SummaryInput struct {
	Candidate    *model.Candidate
	Guardians    []model.Guardian
	Medical      *model.MedicalInformation
	Measurements *model.PhysicalMeasurements
	GeneratedAt  time.Time
}

const (
	summaryMargin    = 20.0
	summaryLineStep  = 6.0
	summaryWrapWidth = 90
)

// summaryWriter lays out lines top to bottom and opens a page when full
type summaryWriter struct {
	c      pdf.Canvas
	height float64
	y      float64
	page   int
}

func (sw *summaryWriter) group(title string) {
	if sw.page > 0 {
		sw.c.NewPage()
	}
	sw.page++
	sw.y = summaryMargin
	sw.c.DrawCenteredText(sw.y, title, pdf.FontTitle)
	sw.y += 2 * summaryLineStep
}

func (sw *summaryWriter) heading(text string) {
	sw.reserve(summaryLineStep * 2)
	sw.y += summaryLineStep / 2
	sw.c.DrawText(summaryMargin, sw.y, text, pdf.FontHeading)
	sw.y += summaryLineStep
}

func (sw *summaryWriter) field(label, value string) {
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	for _, line := range wrapText(label+": "+value, summaryWrapWidth) {
		sw.reserve(summaryLineStep)
		sw.c.DrawText(summaryMargin, sw.y, line, pdf.FontBody)
		sw.y += summaryLineStep
	}
}

func (sw *summaryWriter) reserve(space float64) {
	if sw.y+space > sw.height-summaryMargin {
		sw.c.NewPage()
		sw.page++
		sw.y = summaryMargin
	}
}

// RenderSummary writes the multi-page registration dossier. It only reads its
// inputs.
func RenderSummary(r pdf.Renderer, path string, in SummaryInput) error {
	c, err := r.NewCanvas(path, pdf.A4)
	if err != nil {
		return err
	}
	_, h := c.Size()
	sw := &summaryWriter{c: c, height: h}

	cand := in.Candidate

	sw.group("Dossier d'inscription - Informations personnelles")
	sw.field("Nom", cand.LastName)
	sw.field("Prénom", cand.FirstName)
	sw.field("Date de naissance", formatDate(cand.DateOfBirth))
	sw.field("Nationalité", cand.Nationality)
	sw.field("Lieu de naissance", strings.TrimSpace(cand.BirthPlaceCity+" "+cand.BirthPlacePostalCode+" "+cand.BirthPlace))
	sw.field("Adresse", strings.TrimSpace(cand.Address+", "+cand.PostalCode+" "+cand.City))
	sw.field("Téléphone", cand.Phone)
	sw.field("Portable", cand.MobilePhone)
	sw.field("Email", cand.Email)
	sw.field("Établissement scolaire", cand.School)
	sw.field("Classe", cand.Grade)
	sw.field("Brevet de secourisme", yesNo(cand.FirstAidCertified))
	sw.field("Droit à l'image", yesNo(cand.ImageRights))
	sw.field("Informations complémentaires", cand.AdditionalInfo)

	sw.group("Dossier d'inscription - Tuteurs légaux")
	for i := range in.Guardians {
		g := &in.Guardians[i]
		sw.heading(fmt.Sprintf("Tuteur légal %d", i+1))
		sw.field("Nom", g.FullName())
		sw.field("Lien de parenté", g.Relationship)
		sw.field("Email", g.Email)
		sw.field("Téléphone", g.Phone)
		sw.field("Adresse", strings.TrimSpace(g.Address+", "+g.PostalCode+" "+g.City))
	}
	sw.heading("Contact d'urgence")
	sw.field("Nom", emergencyName(cand))
	sw.field("Téléphone", cand.EmergencyContactPhone)

	sw.group("Dossier d'inscription - Questionnaire médical")
	if m := in.Medical; m != nil {
		date := ""
		if m.MedicalCertificateDate != nil {
			date = formatDate(*m.MedicalCertificateDate)
		}
		sw.field("Date du certificat médical", date)
		sw.field("Médecin", m.DoctorName)
		for _, q := range medicalQuestions(m) {
			sw.field(q.label, yesNo(q.value))
		}
		sw.field("Autres informations médicales", m.AdditionalMedicalInfo)
	} else {
		sw.field("Questionnaire", "non renseigné")
	}

	sw.group("Dossier d'inscription - Mensurations")
	if ms := in.Measurements; ms != nil {
		sw.field("Taille (cm)", intValue(ms.Height))
		sw.field("Poids (kg)", intValue(ms.Weight))
		sw.field("Tour de tête (cm)", intValue(ms.HeadSize))
		sw.field("Tour de cou (cm)", intValue(ms.NeckSize))
		sw.field("Tour de poitrine (cm)", intValue(ms.ChestSize))
		sw.field("Tour de taille (cm)", intValue(ms.WaistSize))
		sw.field("Hauteur de buste (cm)", intValue(ms.BustHeight))
		sw.field("Entrejambe (cm)", intValue(ms.Inseam))
		sw.field("Pointure", intValue(ms.ShoeSize))
	} else {
		sw.field("Mensurations", "non renseignées")
	}

	sw.reserve(summaryLineStep * 2)
	sw.y += summaryLineStep
	c.DrawText(summaryMargin, sw.y, "Document généré le "+formatDate(in.GeneratedAt), pdf.FontSmall)

	return c.Save()
}

type medicalQuestion struct {
	label string
	value bool
}

func medicalQuestions(m *model.MedicalInformation) []medicalQuestion {
	return []medicalQuestion{
		{"Pratique sportive autorisée", m.SportAllowed},
		{"Compétition autorisée", m.SportCompetitionAllowed},
		{"Vie en collectivité autorisée", m.CollectiveLivingAllowed},
		{"Vaccinations à jour", m.VaccinationsUpToDate},
		{"Vol autorisé", m.FlightAllowed},
		{"Décès cardiaque dans la famille", m.FamilyCardiacDeath},
		{"Douleurs thoraciques", m.ChestPain},
		{"Asthme", m.Asthma},
		{"Malaises ou pertes de connaissance", m.Fainting},
		{"Arrêt du sport pour raison de santé", m.StoppedSportForHealth},
		{"Traitement de longue durée", m.LongTermTreatment},
		{"Douleurs après blessure", m.PainAfterInjury},
		{"Sport interrompu pour raison de santé", m.SportInterruptedHealth},
		{"Avis médical nécessaire", m.MedicalAdviceNeeded},
	}
}

// wrapText splits s into lines of at most width runes, breaking on spaces
// when possible.
func wrapText(s string, width int) []string {
	var lines []string
	var cur []rune
	for _, word := range strings.Fields(s) {
		wr := []rune(word)
		for len(wr) > width {
			if len(cur) > 0 {
				lines = append(lines, string(cur))
				cur = cur[:0]
			}
			lines = append(lines, string(wr[:width]))
			wr = wr[width:]
		}
		switch {
		case len(cur) == 0:
			cur = append(cur, wr...)
		case len(cur)+1+len(wr) <= width:
			cur = append(append(cur, ' '), wr...)
		default:
			lines = append(lines, string(cur))
			cur = append(cur[:0], wr...)
		}
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

func yesNo(b bool) string {
	if b {
		return "Oui"
	}
	return "Non"
}

func intValue(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func emergencyName(c *model.Candidate) string {
	if name := strings.TrimSpace(c.EmergencyContactFirstName + " " + c.EmergencyContactLastName); name != "" {
		return name
	}
	return c.EmergencyContactName
}
