package domain

// DocumentType is the classification produced by structure analysis. The
// specialized extraction stage only runs for invoice, contract and resume.
type DocumentType string

const (
	DocTypeInvoice  DocumentType = "invoice"
	DocTypeContract DocumentType = "contract"
	DocTypeResume   DocumentType = "resume"
	DocTypeReport   DocumentType = "report"
	DocTypeLetter   DocumentType = "letter"
	DocTypeOther    DocumentType = "other"
)

// SpecializedSupported reports whether a document type has a dedicated
// extraction payload.
func (t DocumentType) SpecializedSupported() bool {
	switch t {
	case DocTypeInvoice, DocTypeContract, DocTypeResume:
		return true
	default:
		return false
	}
}

type SummaryLength string

const (
	SummaryShort  SummaryLength = "short"
	SummaryMedium SummaryLength = "medium"
	SummaryLong   SummaryLength = "long"
)

type ExtractionResult struct {
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
	CharCount int    `json:"char_count"`
}

type SummaryResult struct {
	Summary          string   `json:"summary"`
	KeyPoints        []string `json:"key_points"`
	InputWordCount   int      `json:"input_word_count"`
	SummaryWordCount int      `json:"summary_word_count"`
}

type DetectedObject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type SceneDescription struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type VisualFeatures struct {
	DominantColors []string `json:"dominant_colors,omitempty"`
	ContainsText   bool     `json:"contains_text"`
	Sharpness      float64  `json:"sharpness,omitempty"`
}

type ImageAnalysisResult struct {
	Objects  []DetectedObject `json:"objects"`
	Scene    SceneDescription `json:"scene"`
	Features VisualFeatures   `json:"features"`
	// Degraded marks a placeholder result produced when the image service was
	// unavailable and the stage policy trades accuracy for availability.
	Degraded bool `json:"degraded,omitempty"`
}

type Section struct {
	Title string `json:"title"`
	Level int    `json:"level"`
}

type Table struct {
	Caption string `json:"caption,omitempty"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Entity struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
}

type StructureResult struct {
	DocumentType DocumentType `json:"document_type"`
	Confidence   float64      `json:"confidence"`
	Sections     []Section    `json:"sections,omitempty"`
	Tables       []Table      `json:"tables,omitempty"`
	KeyValues    []KeyValue   `json:"key_values,omitempty"`
	Entities     []Entity     `json:"entities,omitempty"`
	Sentiment    string       `json:"sentiment,omitempty"`
}

// QualityResult carries four 0-100 scores plus an overall rating.
type QualityResult struct {
	Clarity         int      `json:"clarity"`
	Completeness    int      `json:"completeness"`
	Coherence       int      `json:"coherence"`
	Formatting      int      `json:"formatting"`
	OverallRating   string   `json:"overall_rating"`
	Recommendations []string `json:"recommendations,omitempty"`
}

type LineItem struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type InvoiceDetails struct {
	InvoiceNumber string     `json:"invoice_number"`
	Vendor        string     `json:"vendor"`
	Total         string     `json:"total"`
	Currency      string     `json:"currency,omitempty"`
	DueDate       string     `json:"due_date,omitempty"`
	LineItems     []LineItem `json:"line_items,omitempty"`
}

type ContractDetails struct {
	Parties        []string `json:"parties"`
	EffectiveDate  string   `json:"effective_date,omitempty"`
	ExpirationDate string   `json:"expiration_date,omitempty"`
	Obligations    []string `json:"obligations,omitempty"`
	GoverningLaw   string   `json:"governing_law,omitempty"`
}

type ExperienceEntry struct {
	Company string `json:"company"`
	Title   string `json:"title"`
	Period  string `json:"period,omitempty"`
}

type ResumeDetails struct {
	Name       string            `json:"name"`
	Email      string            `json:"email,omitempty"`
	Skills     []string          `json:"skills,omitempty"`
	Experience []ExperienceEntry `json:"experience,omitempty"`
	Education  []string          `json:"education,omitempty"`
}

type SpecializedResult struct {
	DocumentType DocumentType     `json:"document_type"`
	Invoice      *InvoiceDetails  `json:"invoice,omitempty"`
	Contract     *ContractDetails `json:"contract,omitempty"`
	Resume       *ResumeDetails   `json:"resume,omitempty"`
}

// StageResult holds exactly one stage payload.
type StageResult struct {
	Extraction  *ExtractionResult    `json:"extraction,omitempty"`
	Summary     *SummaryResult       `json:"summary,omitempty"`
	Image       *ImageAnalysisResult `json:"image,omitempty"`
	Structure   *StructureResult     `json:"structure,omitempty"`
	Quality     *QualityResult       `json:"quality,omitempty"`
	Specialized *SpecializedResult   `json:"specialized,omitempty"`
}
