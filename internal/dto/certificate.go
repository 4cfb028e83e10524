package dto

// CertificateResponse 证书信息
type CertificateResponse struct {
	ID                uint   `json:"id"`
	UserID            uint   `json:"user_id"`
	ProjectID         uint   `json:"project_id"`
	ProjectTitle      string `json:"project_title,omitempty"`
	CertificateNumber string `json:"certificate_number"`
	FileURL           string `json:"file_url"`
	IssuedAt          string `json:"issued_at"`
}

// GenerateCertificateResponse 主动申请证书结果
type GenerateCertificateResponse struct {
	Certificate CertificateResponse `json:"certificate"`
	Created     bool                `json:"created"`
}
