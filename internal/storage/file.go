package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"dns01-hook/internal/provider"
)

// FileStorage 证书文件存储
type FileStorage struct {
	baseDir string
	logger  *logrus.Entry
}

// NewFileStorage 创建文件存储
func NewFileStorage(baseDir string, logger *logrus.Entry) *FileStorage {
	return &FileStorage{
		baseDir: baseDir,
		logger:  logger.WithField("component", "storage"),
	}
}

// LoadCertificate 读取已签发的证书文件，fullchainFile 可以为空
func LoadCertificate(keyFile, certFile, fullchainFile string) (*provider.Certificate, error) {
	key, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("读取私钥失败: %w", err)
	}

	cert, err := os.ReadFile(certFile)
	if err != nil {
		return nil, fmt.Errorf("读取证书失败: %w", err)
	}

	var chain []byte
	if fullchainFile != "" {
		chain, err = os.ReadFile(fullchainFile)
		if err != nil {
			return nil, fmt.Errorf("读取证书链失败: %w", err)
		}
	}

	return &provider.Certificate{
		Certificate: string(cert),
		PrivateKey:  string(key),
		Chain:       string(chain),
	}, nil
}

// SaveCertificate 保存证书到 baseDir/<domain>/
func (s *FileStorage) SaveCertificate(domain string, cert *provider.Certificate) error {
	outputDir := s.GetCertDir(domain)

	// 创建输出目录
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	// 保存证书
	certPath := s.GetCertPath(domain)
	if err := os.WriteFile(certPath, []byte(cert.Certificate), 0644); err != nil {
		return fmt.Errorf("保存证书失败: %w", err)
	}
	s.logger.Infof("  - 证书文件: %s", certPath)

	// 保存私钥
	if cert.PrivateKey != "" {
		keyPath := s.GetKeyPath(domain)
		if err := os.WriteFile(keyPath, []byte(cert.PrivateKey), 0600); err != nil {
			return fmt.Errorf("保存私钥失败: %w", err)
		}
		s.logger.Infof("  - 私钥文件: %s", keyPath)
	} else {
		s.logger.Warn("  - 警告: 私钥不可用")
	}

	// 保存完整证书链
	chain := cert.Chain
	if chain == "" {
		chain = cert.Certificate
	}
	fullchainPath := s.GetFullchainPath(domain)
	if err := os.WriteFile(fullchainPath, []byte(chain), 0644); err != nil {
		return fmt.Errorf("保存证书链失败: %w", err)
	}
	s.logger.Infof("  - 证书链文件: %s", fullchainPath)

	s.logger.Infof("证书已保存到: %s", outputDir)
	return nil
}

// GetCertDir 获取证书目录
func (s *FileStorage) GetCertDir(domain string) string {
	return filepath.Join(s.baseDir, domain)
}

// GetCertPath 获取证书路径
func (s *FileStorage) GetCertPath(domain string) string {
	return filepath.Join(s.baseDir, domain, "cert.pem")
}

// GetKeyPath 获取私钥路径
func (s *FileStorage) GetKeyPath(domain string) string {
	return filepath.Join(s.baseDir, domain, "privkey.pem")
}

// GetFullchainPath 获取完整证书链路径
func (s *FileStorage) GetFullchainPath(domain string) string {
	return filepath.Join(s.baseDir, domain, "fullchain.pem")
}
