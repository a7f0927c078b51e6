package aliyun

import (
	"context"
	"fmt"

	cas "github.com/alibabacloud-go/cas-20200407/v3/client"
	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	"github.com/alibabacloud-go/tea/tea"

	"dns01-hook/internal/config"
	"dns01-hook/internal/provider"
)

// CertUploader 阿里云证书库 (CAS) 上传
type CertUploader struct {
	client *cas.Client
}

// NewCertUploader 创建阿里云证书上传客户端
func NewCertUploader(cfg *config.AliyunConfig) (*CertUploader, error) {
	clientConfig := &openapi.Config{
		AccessKeyId:     tea.String(cfg.AccessKeyID),
		AccessKeySecret: tea.String(cfg.AccessKeySecret),
		Endpoint:        tea.String("cas.aliyuncs.com"),
	}

	client, err := cas.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("创建阿里云CAS客户端失败: %w", err)
	}

	return &CertUploader{client: client}, nil
}

// UploadCertificate 上传证书到阿里云证书库
func (u *CertUploader) UploadCertificate(ctx context.Context, name string, cert *provider.Certificate) (string, error) {
	// CAS 要求证书字段包含完整链
	chain := cert.Chain
	if chain == "" {
		chain = cert.Certificate
	}

	request := &cas.UploadUserCertificateRequest{
		Name: tea.String(name),
		Cert: tea.String(chain),
		Key:  tea.String(cert.PrivateKey),
	}

	response, err := u.client.UploadUserCertificate(request)
	if err != nil {
		return "", fmt.Errorf("上传证书失败: %w", err)
	}
	if response.Body == nil {
		return "", fmt.Errorf("上传证书失败: 响应为空")
	}

	return fmt.Sprintf("%d", tea.Int64Value(response.Body.CertId)), nil
}
