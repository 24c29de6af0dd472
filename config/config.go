package config

var (
	ConfigPath = "./config/"
	ConfigFile = ConfigPath + "config.json"
	LogPath    = "./logs/"

	ExchangeLog = "exchange"
	FactoryLog  = "factory"
	PairLog     = "pair"
	StoreLog    = "store"
	NetworkLog  = "network"
)

// Pair listing bounds for the factory registry queries.
const (
	DefaultListLimit = 10
	MaxListLimit     = 30
)

type Balance struct {
	Holder string `json:"holder"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type AssetConfig struct {
	// Denom is set for native assets, ContractAddr/CodeHash for token assets.
	Denom        string `json:"denom,omitempty"`
	ContractAddr string `json:"contract_addr,omitempty"`
	CodeHash     string `json:"code_hash,omitempty"`
}

type PairBootstrap struct {
	Asset0 AssetConfig `json:"asset0"`
	Asset1 AssetConfig `json:"asset1"`
}

type Config struct {
	Listen         string            `json:"listen"`
	Owner          string            `json:"owner"`
	TokenCodeID    uint64            `json:"token_code_id"`
	PairCodeID     uint64            `json:"pair_code_id"`
	TokenCodeHash  string            `json:"token_code_hash"`
	PairCodeHash   string            `json:"pair_code_hash"`
	TaxRate        string            `json:"tax_rate"`
	TaxCaps        map[string]string `json:"tax_caps"`
	Pairs          []*PairBootstrap  `json:"pairs"`
	Balances       []*Balance        `json:"balances"`
	LedgerEndpoint string            `json:"ledger_endpoint"`
	NetStatus      bool              `json:"net_status"`
	NotifyUrl      string            `json:"notify_url"`
	NotifyMinSwap  string            `json:"notify_min_swap"`
	DBUrl          string            `json:"db_url"`
	DBScheme       string            `json:"db_scheme"`
	DBUser         string            `json:"db_user"`
	DBPasswd       string            `json:"db_passwd"`
	WorkSpace      string            `json:"workspace"`
	DumpLog        bool              `json:"dump_log"`
}
