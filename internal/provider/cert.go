package provider

import "context"

// CertUploader 支持上传证书到云平台证书库的提供商
type CertUploader interface {
	// UploadCertificate 上传证书，返回云平台证书ID
	UploadCertificate(ctx context.Context, name string, cert *Certificate) (string, error)
}
