package constants

// Stage is the canonical name for a per-item pipeline stage.
type Stage string

// Stable values (these exact strings land in the tracking file and logs).
const (
	StagePending   Stage = "PENDING"
	StageOCR       Stage = "OCR"       // text extracted from the scan
	StageParse     Stage = "PARSE"     // structured draft built
	StageNutrition Stage = "NUTRITION" // nutrition resolved (primary or fallback)
	StageRender    Stage = "RENDER"    // output artifacts written
	StageRecord    Stage = "RECORD"    // tracking file updated
)

// OCRMethod selects the text extraction strategy tried first.
type OCRMethod string

const (
	OCRMethodTesseract OCRMethod = "tesseract"
	OCRMethodVisionAPI OCRMethod = "vision-api"
)

// ValidOCRMethod reports whether m names a known OCR method.
func ValidOCRMethod(m string) bool {
	switch OCRMethod(m) {
	case OCRMethodTesseract, OCRMethodVisionAPI:
		return true
	}
	return false
}
