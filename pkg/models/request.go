package models

// DesignRequest is the input of a design generation job.
type DesignRequest struct {
	Method   string `json:"method"`
	Kinetics string `json:"kinetics"`
}

// FileUpload is a file handed over by an upload surface (form, drag-and-drop, CLI).
// SizeBytes is the declared size; Data holds the raw content.
type FileUpload struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	SizeBytes int64  `json:"size_bytes"`
	Data      []byte `json:"-"`
}

// Size returns the declared size, falling back to the payload length when
// no size was declared.
func (f FileUpload) Size() int64 {
	if f.SizeBytes > 0 {
		return f.SizeBytes
	}
	return int64(len(f.Data))
}

// JobRequest is a tagged union over job kinds. Exactly one of Design or File
// is set, matching Kind.
type JobRequest struct {
	Kind   JobKind        `json:"kind"`
	Design *DesignRequest `json:"design,omitempty"`
	File   *FileUpload    `json:"file,omitempty"`
}

// NewDesignRequest builds a design generation request.
func NewDesignRequest(method, kinetics string) JobRequest {
	return JobRequest{
		Kind:   KindDesignGeneration,
		Design: &DesignRequest{Method: method, Kinetics: kinetics},
	}
}

// NewFileRequest builds an analysis request of the given kind.
func NewFileRequest(kind JobKind, file FileUpload) JobRequest {
	return JobRequest{Kind: kind, File: &file}
}
