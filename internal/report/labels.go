package report

// Labels are the translated captions of a report.
type Labels struct {
	Title            string
	BasicInfo        string
	DocumentType     string
	InvoiceNumber    string
	Date             string
	DueDate          string
	Parties          string
	VendorName       string
	VendorAddress    string
	VendorTaxID      string
	CustomerName     string
	CustomerAddress  string
	CustomerTaxID    string
	LineItems        string
	Description      string
	Quantity         string
	UnitPrice        string
	TotalPrice       string
	Summary          string
	SubtotalAmount   string
	TaxAmount        string
	TotalAmount      string
	TaxID            string
	PaymentTerms     string
	Notes            string
	ValidationErrors string
	Warnings         string
	RawSnippet       string
}

// unicodeOnly lists label sets that cannot be drawn with the core fonts.
var unicodeOnly = map[string]bool{"hi": true}

var labelSets = map[string]Labels{
	"en": {
		Title:            "Tax Document Analysis Report",
		BasicInfo:        "Basic Information",
		DocumentType:     "Document Type:",
		InvoiceNumber:    "Invoice Number:",
		Date:             "Date:",
		DueDate:          "Due Date:",
		Parties:          "Parties Involved",
		VendorName:       "Vendor Name:",
		VendorAddress:    "Vendor Address:",
		VendorTaxID:      "Vendor Tax ID:",
		CustomerName:     "Customer Name:",
		CustomerAddress:  "Customer Address:",
		CustomerTaxID:    "Customer Tax ID:",
		LineItems:        "Line Items",
		Description:      "Description",
		Quantity:         "Quantity",
		UnitPrice:        "Unit Price",
		TotalPrice:       "Total Price",
		Summary:          "Summary",
		SubtotalAmount:   "Subtotal Amount:",
		TaxAmount:        "Tax Amount:",
		TotalAmount:      "Total Amount:",
		TaxID:            "GST/VAT/Tax ID:",
		PaymentTerms:     "Payment Terms:",
		Notes:            "Notes:",
		ValidationErrors: "Validation Errors",
		Warnings:         "Warnings",
		RawSnippet:       "Raw Document Snippet",
	},
	"hi": {
		Title:            "कर दस्तावेज़ विश्लेषण रिपोर्ट",
		BasicInfo:        "मूलभूत जानकारी",
		DocumentType:     "दस्तावेज़ का प्रकार:",
		InvoiceNumber:    "चालान संख्या:",
		Date:             "दिनांक:",
		DueDate:          "देय तिथि:",
		Parties:          "शामिल पक्ष",
		VendorName:       "विक्रेता का नाम:",
		VendorAddress:    "विक्रेता का पता:",
		VendorTaxID:      "विक्रेता कर पहचान:",
		CustomerName:     "ग्राहक का नाम:",
		CustomerAddress:  "ग्राहक का पता:",
		CustomerTaxID:    "ग्राहक कर पहचान:",
		LineItems:        "लाइन आइटम",
		Description:      "विवरण",
		Quantity:         "मात्रा",
		UnitPrice:        "इकाई मूल्य",
		TotalPrice:       "कुल मूल्य",
		Summary:          "सारांश",
		SubtotalAmount:   "उप-योग राशि:",
		TaxAmount:        "कर राशि:",
		TotalAmount:      "कुल राशि:",
		TaxID:            "जीएसटी/वैट/कर आईडी:",
		PaymentTerms:     "भुगतान शर्तें:",
		Notes:            "टिप्पणियाँ:",
		ValidationErrors: "सत्यापन त्रुटियाँ",
		Warnings:         "चेतावनियाँ",
		RawSnippet:       "मूल दस्तावेज़ अंश",
	},
	"de": {
		Title:            "Analysebericht Steuerdokument",
		BasicInfo:        "Basisinformationen",
		DocumentType:     "Dokumenttyp:",
		InvoiceNumber:    "Rechnungsnummer:",
		Date:             "Datum:",
		DueDate:          "Fälligkeit:",
		Parties:          "Beteiligte",
		VendorName:       "Lieferant:",
		VendorAddress:    "Lieferantenadresse:",
		VendorTaxID:      "Steuer-ID Lieferant:",
		CustomerName:     "Kunde:",
		CustomerAddress:  "Kundenadresse:",
		CustomerTaxID:    "Steuer-ID Kunde:",
		LineItems:        "Positionen",
		Description:      "Beschreibung",
		Quantity:         "Menge",
		UnitPrice:        "Einzelpreis",
		TotalPrice:       "Gesamtpreis",
		Summary:          "Zusammenfassung",
		SubtotalAmount:   "Nettobetrag:",
		TaxAmount:        "Steuerbetrag:",
		TotalAmount:      "Gesamtbetrag:",
		TaxID:            "USt-IdNr./Steuer-ID:",
		PaymentTerms:     "Zahlungsbedingungen:",
		Notes:            "Hinweise:",
		ValidationErrors: "Validierungsfehler",
		Warnings:         "Warnungen",
		RawSnippet:       "Auszug aus dem Originaldokument",
	},
	"es": {
		Title:            "Informe de análisis de documento fiscal",
		BasicInfo:        "Información básica",
		DocumentType:     "Tipo de documento:",
		InvoiceNumber:    "Número de factura:",
		Date:             "Fecha:",
		DueDate:          "Vencimiento:",
		Parties:          "Partes involucradas",
		VendorName:       "Proveedor:",
		VendorAddress:    "Dirección del proveedor:",
		VendorTaxID:      "NIF del proveedor:",
		CustomerName:     "Cliente:",
		CustomerAddress:  "Dirección del cliente:",
		CustomerTaxID:    "NIF del cliente:",
		LineItems:        "Conceptos",
		Description:      "Descripción",
		Quantity:         "Cantidad",
		UnitPrice:        "Precio unitario",
		TotalPrice:       "Precio total",
		Summary:          "Resumen",
		SubtotalAmount:   "Subtotal:",
		TaxAmount:        "Impuestos:",
		TotalAmount:      "Total:",
		TaxID:            "IVA/NIF:",
		PaymentTerms:     "Condiciones de pago:",
		Notes:            "Notas:",
		ValidationErrors: "Errores de validación",
		Warnings:         "Advertencias",
		RawSnippet:       "Extracto del documento original",
	},
	"fr": {
		Title:            "Rapport d'analyse de document fiscal",
		BasicInfo:        "Informations de base",
		DocumentType:     "Type de document :",
		InvoiceNumber:    "Numéro de facture :",
		Date:             "Date :",
		DueDate:          "Échéance :",
		Parties:          "Parties concernées",
		VendorName:       "Fournisseur :",
		VendorAddress:    "Adresse du fournisseur :",
		VendorTaxID:      "N° fiscal fournisseur :",
		CustomerName:     "Client :",
		CustomerAddress:  "Adresse du client :",
		CustomerTaxID:    "N° fiscal client :",
		LineItems:        "Lignes",
		Description:      "Description",
		Quantity:         "Quantité",
		UnitPrice:        "Prix unitaire",
		TotalPrice:       "Prix total",
		Summary:          "Récapitulatif",
		SubtotalAmount:   "Montant HT :",
		TaxAmount:        "TVA :",
		TotalAmount:      "Montant TTC :",
		TaxID:            "N° TVA/fiscal :",
		PaymentTerms:     "Conditions de paiement :",
		Notes:            "Remarques :",
		ValidationErrors: "Erreurs de validation",
		Warnings:         "Avertissements",
		RawSnippet:       "Extrait du document original",
	},
}

// LabelsFor returns the labels for language, falling back to English.
func LabelsFor(language string) Labels {
	if l, ok := labelSets[language]; ok {
		return l
	}
	return labelSets["en"]
}
