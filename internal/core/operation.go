package core

// Operation 钩子操作，只能是本包定义的四种之一
type Operation interface {
	Name() string
	isOperation()
}

// DeployChallenge 发布验证记录并等待生效
type DeployChallenge struct {
	Domain        string
	TokenFilename string // 未使用
	Token         string
}

// CleanChallenge 删除验证记录
type CleanChallenge struct {
	Domain        string
	TokenFilename string // 未使用
	Token         string
}

// DeployCert 证书已签发，文件路径由调用方给出
type DeployCert struct {
	Domain        string
	KeyFile       string
	CertFile      string
	FullchainFile string
	ChainFile     string
	Timestamp     string
}

// UnchangedCert 证书未变化，不做任何事
type UnchangedCert struct {
	Args []string
}

func (DeployChallenge) Name() string { return "deploy_challenge" }
func (CleanChallenge) Name() string  { return "clean_challenge" }
func (DeployCert) Name() string      { return "deploy_cert" }
func (UnchangedCert) Name() string   { return "unchanged_cert" }

func (DeployChallenge) isOperation() {}
func (CleanChallenge) isOperation()  {}
func (DeployCert) isOperation()      {}
func (UnchangedCert) isOperation()   {}
