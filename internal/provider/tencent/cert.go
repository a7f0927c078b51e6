package tencent

import (
	"context"
	"fmt"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	ssl "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/ssl/v20191205"

	"dns01-hook/internal/config"
	"dns01-hook/internal/provider"
)

// CertUploader 腾讯云SSL证书上传
type CertUploader struct {
	client *ssl.Client
}

// NewCertUploader 创建腾讯云证书上传客户端
func NewCertUploader(cfg *config.TencentConfig) (*CertUploader, error) {
	credential := common.NewCredential(cfg.SecretID, cfg.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "ssl.tencentcloudapi.com"

	region := cfg.Region
	if region == "" {
		region = "ap-guangzhou"
	}

	client, err := ssl.NewClient(credential, region, cpf)
	if err != nil {
		return nil, fmt.Errorf("创建腾讯云SSL客户端失败: %w", err)
	}

	return &CertUploader{client: client}, nil
}

// UploadCertificate 上传证书到腾讯云SSL证书管理
func (u *CertUploader) UploadCertificate(ctx context.Context, name string, cert *provider.Certificate) (string, error) {
	publicKey := cert.Chain
	if publicKey == "" {
		publicKey = cert.Certificate
	}

	request := ssl.NewUploadCertificateRequest()
	request.CertificatePublicKey = common.StringPtr(publicKey)
	request.CertificatePrivateKey = common.StringPtr(cert.PrivateKey)
	request.CertificateType = common.StringPtr("SVR")
	request.Alias = common.StringPtr(name)

	response, err := u.client.UploadCertificate(request)
	if err != nil {
		return "", fmt.Errorf("上传证书失败: %w", err)
	}
	if response.Response == nil || response.Response.CertificateId == nil {
		return "", fmt.Errorf("上传证书失败: 响应中缺少证书ID")
	}

	return *response.Response.CertificateId, nil
}
