package importer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical column names shared by both file kinds after normalization.
const (
	ColClaimID          = "claim_id"
	ColPaymentDate      = "payment_date"
	ColBeneficiaryName  = "beneficiary_name"
	ColMainInsured      = "main_insured"
	ColPartnerName      = "partner_name"
	ColEmployerName     = "employer_name"
	ColPolicyNumber     = "policy_number"
	ColPaymentMethod    = "payment_method"
	ColAmountClaimed    = "amount_claimed"
	ColAmountReimbursed = "amount_reimbursed"
	ColInvoiceNumber    = "invoice_number"
	ColNote             = "note"

	ColBrokerName     = "broker_name"
	ColInsuredStatus  = "insured_status"
	ColClaimStatus    = "claim_status"
	ColActCategory    = "act_category"
	ColActFamily      = "act_family"
	ColActName        = "act_name"
	ColPartnerAddress = "partner_address"
	ColPartnerCountry = "partner_country"
	ColIncidentDate   = "incident_date"
	ColModifiedBy     = "modified_by"

	// Columns produced by the comparator.
	ColAmountClaimedRecap    = "amount_claimed_recap"
	ColAmountReimbursedRecap = "amount_reimbursed_recap"
	ColBilledAmountDiff      = "billed_amount_diff"
	ColReimbursedAmountDiff  = "reimbursement_amount_diff"
	ColConformity            = "conformity"
	ColObservation           = "observation"
)

// columnSynonyms maps normalized source header variants to canonical names.
var columnSynonyms = map[string]string{
	"reglementid":        ColClaimID,
	"id_reglement":       ColClaimID,
	"id_sinistre":        ColClaimID,
	"numero_de_sinistre": ColClaimID,

	"date_reglement":    ColPaymentDate,
	"date_de_reglement": ColPaymentDate,

	"beneficiaire":        ColBeneficiaryName,
	"nom_beneficiaire":    ColBeneficiaryName,
	"nom_de_beneficiaire": ColBeneficiaryName,

	"assures_principal":     ColMainInsured,
	"assure_principal":      ColMainInsured,
	"nom_assure_principal":  ColMainInsured,
	"nom_assures_principal": ColMainInsured,

	"partnerid":         ColPartnerName,
	"nom_du_partenaire": ColPartnerName,
	"nom_partenaire":    ColPartnerName,

	"employeur":     ColEmployerName,
	"nom_employeur": ColEmployerName,

	"n°_police":        ColPolicyNumber,
	"numero_de_police": ColPolicyNumber,
	"numero_police":    ColPolicyNumber,

	"n°_cheque":                         ColPaymentMethod,
	"autres_moyen_de_payement":          ColPaymentMethod,
	"n°cheque/autre_moyent_de_payement": ColPaymentMethod,

	"totalmttreclame": ColAmountClaimed,
	"montant_facture": ColAmountClaimed,

	"totalmttrembourse": ColAmountReimbursed,
	"montant_rembourse": ColAmountReimbursed,

	"numfacture":        ColInvoiceNumber,
	"numero_de_facture": ColInvoiceNumber,

	"note":          ColNote,
	"note_generale": ColNote,

	"broker_name":      ColBrokerName,
	"statut_assure":    ColInsuredStatus,
	"statut":           ColClaimStatus,
	"categorie_d'acte": ColActCategory,
	"famille_acte":     ColActFamily,
	"nom_acte":         ColActName,
	"adresse_du_partenaire": ColPartnerAddress,
	"pays_du_partenaire":    ColPartnerCountry,
	"date_de_sinistre":      ColIncidentDate,
	"date_sinistre":         ColIncidentDate,
	"modifie_par":           ColModifiedBy,
}

// StatRequiredHeaders lists the raw headers a statement file must carry,
// checked before any normalization.
var StatRequiredHeaders = []string{
	"Nom Employeur",
	"Broker Name",
	"Nom bénéficiaire",
	"Acte_Contraté_Assuré",
	"Statut Assuré",
	"Numero de police",
	"Nom Assuré Principal",
	"Nom du partenaire",
	"Adresse du Partenaire",
	"Pays du partenaire",
	"Numero de sinistre",
	"Statut",
	"Date de sinistre",
	"Date de règlement",
	"Categorie d'acte",
	"Famille Acte",
	"Nom Acte",
	"Montant facturé",
	"N°cheque/Autre_Moyent_de_payement",
	"Note Générale",
	"Numero de Facture",
	"Modifié par",
}

// RecapRequiredHeaders lists the raw headers a recap file must carry.
var RecapRequiredHeaders = []string{
	"reglementId",
	"date_reglement",
	"beneficiaire",
	"N°_Cheque",
	"autres_Moyen_de_payement",
	"partnerId",
	"Assurés_principal",
	"Employeur",
	"N°_police",
	"totalmttreclame",
	"totalmttrembourse",
	"NumFacture",
	"Note",
}

var separatorRun = regexp.MustCompile(`[\s\-_]+`)

var accentStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// StripAccents removes combining accent marks from a string.
func StripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeColumnName lowercases, strips accents, collapses separator runs
// to a single underscore, then maps known variants to canonical names.
func NormalizeColumnName(col string) string {
	c := strings.ToLower(strings.TrimSpace(col))
	c = StripAccents(c)
	c = separatorRun.ReplaceAllString(c, "_")
	if canonical, ok := columnSynonyms[c]; ok {
		return canonical
	}
	return c
}

// NormalizeColumns rewrites the table header and every row key to canonical
// column names.
func NormalizeColumns(t *Table) {
	renamed := make(map[string]string, len(t.Columns))
	for i, col := range t.Columns {
		canonical := NormalizeColumnName(col)
		renamed[col] = canonical
		t.Columns[i] = canonical
	}
	for i, row := range t.Rows {
		next := make(Row, len(row))
		for col, v := range row {
			next[renamed[col]] = v
		}
		t.Rows[i] = next
	}
}

// MissingHeaders returns the required raw headers absent from have,
// compared exactly as the source file spells them.
func MissingHeaders(have []string, required []string) []string {
	present := make(map[string]struct{}, len(have))
	for _, h := range have {
		present[strings.TrimSpace(h)] = struct{}{}
	}
	var missing []string
	for _, h := range required {
		if _, ok := present[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}
