package store

type SwapRecord struct {
	Id               uint64 `gorm:"primaryKey;autoIncrement;type:bigint(20);not null"`
	Time             uint64 `gorm:"type:bigint(20);not null"`
	Pair             string `gorm:"type:varchar(96);not null"`
	Sender           string `gorm:"type:varchar(48);not null"`
	Receiver         string `gorm:"type:varchar(48);not null"`
	OfferAsset       string `gorm:"type:varchar(48);not null"`
	AskAsset         string `gorm:"type:varchar(48);not null"`
	OfferAmount      string `gorm:"type:varchar(48);not null"`
	ReturnAmount     string `gorm:"type:varchar(48);not null"`
	SpreadAmount     string `gorm:"type:varchar(48);not null"`
	CommissionAmount string `gorm:"type:varchar(48);not null"`
	TaxAmount        string `gorm:"type:varchar(48);not null"`
}

type LiquidityRecord struct {
	Id      uint64 `gorm:"primaryKey;autoIncrement;type:bigint(20);not null"`
	Time    uint64 `gorm:"type:bigint(20);not null"`
	Pair    string `gorm:"type:varchar(96);not null"`
	Sender  string `gorm:"type:varchar(48);not null"`
	Action  string `gorm:"type:varchar(24);not null"`
	Amount0 string `gorm:"type:varchar(48);not null"`
	Amount1 string `gorm:"type:varchar(48);not null"`
	Share   string `gorm:"type:varchar(48);not null"`
}
