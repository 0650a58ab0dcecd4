package types

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Sentinel values persisted in the metadata document when a stage has no
// real content to record. They are part of the on-disk JSON contract; use
// HasText/HasSummary instead of comparing against the literals.
const (
	NoTextSentinel    = "- no text found"
	NoSummarySentinel = "NA"
)

// Box represents a normalized bounding box with coordinates in [0,1] range.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Detection holds the best-matching semantic label for a segmented object.
// A record only carries a Detection when identification cleared the
// acceptance threshold.
type Detection struct {
	Description string  `json:"description"`
	Probability float64 `json:"probability"`
}

// SegmentedObject describes one cropped object emitted by the segmenter,
// including the box it was cut from and the master image it belongs to.
type SegmentedObject struct {
	ImageID     string  `json:"image_id"`
	SourceImage string  `json:"source_image"`
	Label       string  `json:"label,omitempty"`
	Box         Box     `json:"box"`
	Score       float64 `json:"score"`
}

// ObjectRecord is one entry of the metadata document, created by the
// identification stage and enriched in place by text extraction and
// summarization.
type ObjectRecord struct {
	ImageID     string     `json:"image_id"`
	SourceImage string     `json:"source_image,omitempty"`
	Detection   *Detection `json:"detection,omitempty"`
	Texts       string     `json:"texts,omitempty"`
	Summary     *string    `json:"summary"`
}

// HasText reports whether the record carries real extracted text rather
// than the no-text sentinel.
func (r *ObjectRecord) HasText() bool {
	return r.Texts != "" && r.Texts != NoTextSentinel
}

// HasSummary reports whether the record carries a real summary.
func (r *ObjectRecord) HasSummary() bool {
	return r.Summary != nil && *r.Summary != NoSummarySentinel
}

// ObjectMapping is the per-object enriched data keyed by object identifier.
// Despite modeling "master image data" it is object-scoped; multiple entries
// may belong to the same physical master image.
type ObjectMapping map[string]MappingEntry

// MappingEntry is the value of one ObjectMapping entry, copied from the
// corresponding ObjectRecord.
type MappingEntry struct {
	ImagePath   string     `json:"image_path"`
	SourceImage string     `json:"source_image,omitempty"`
	Detection   *Detection `json:"detection,omitempty"`
	Texts       string     `json:"texts,omitempty"`
	Summary     *string    `json:"summary"`
}

// FinalMetadata is the terminal report structure keyed by master-image
// filename.
type FinalMetadata map[string]MasterImageReport

// MasterImageReport groups the annotated master image with its segmented
// objects and their rendered summary tables.
type MasterImageReport struct {
	MasterImage      string        `json:"master_image"`
	SegmentedObjects []ObjectEntry `json:"segmented_objects"`
}

// ObjectEntry pairs a segmented-object crop with its summary-table image.
type ObjectEntry struct {
	ObjectImage  string `json:"object_image"`
	SummaryTable string `json:"summary_table"`
}

var objectIDPattern = regexp.MustCompile(`^(.+)_object_\d+$`)

// ParentImageStem derives the master-image stem from a cropped-object
// identifier following the "{stem}_object_{i}" naming scheme. The second
// return value is false when the identifier does not follow the scheme.
func ParentImageStem(imageID string) (string, bool) {
	stem := strings.TrimSuffix(imageID, filepath.Ext(imageID))
	m := objectIDPattern.FindStringSubmatch(stem)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ObjectStem returns the object identifier without its file extension.
func ObjectStem(imageID string) string {
	return strings.TrimSuffix(imageID, filepath.Ext(imageID))
}
