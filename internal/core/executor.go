package core

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Executor 命令执行器
type Executor struct {
	logger *logrus.Entry
}

// NewExecutor 创建执行器
func NewExecutor(logger *logrus.Entry) *Executor {
	return &Executor{logger: logger.WithField("component", "executor")}
}

// RunPostCommand 执行后置命令，命令输出写入日志
func (e *Executor) RunPostCommand(ctx context.Context, command string, vars map[string]string) error {
	if command == "" {
		return nil
	}

	command = ExpandVars(command, vars)
	e.logger.Infof("执行后置命令: %s", command)

	stdout := e.logger.WriterLevel(logrus.InfoLevel)
	defer stdout.Close()
	stderr := e.logger.WriterLevel(logrus.WarnLevel)
	defer stderr.Close()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("执行命令失败: %w", err)
	}

	e.logger.Info("后置命令执行成功")
	return nil
}

// ExpandVars 替换命令中的 ${NAME}
func ExpandVars(command string, vars map[string]string) string {
	for key, value := range vars {
		command = strings.ReplaceAll(command, "${"+key+"}", value)
	}
	return command
}

// BuildVars 构建 deploy_cert 的变量映射
func (e *Executor) BuildVars(op DeployCert) map[string]string {
	return map[string]string{
		"DOMAIN":         op.Domain,
		"CERT_DIR":       filepath.Dir(op.CertFile),
		"CERT_FILE":      op.CertFile,
		"KEY_FILE":       op.KeyFile,
		"FULLCHAIN_FILE": op.FullchainFile,
		"CHAIN_FILE":     op.ChainFile,
		"TIMESTAMP":      op.Timestamp,
	}
}
