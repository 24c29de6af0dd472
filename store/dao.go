package store

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Dao struct {
	db *gorm.DB
}

func NewDao(url, scheme, user, passwd string) *Dao {
	dao := &Dao{}
	Logger := logger.Default
	Logger = Logger.LogMode(logger.Warn)
	db, err := gorm.Open(mysql.Open(user+":"+passwd+"@tcp("+url+")/"+
		scheme+"?charset=utf8"), &gorm.Config{Logger: Logger})
	if err != nil {
		panic(err)
	}
	err = db.AutoMigrate(&SwapRecord{}, &LiquidityRecord{})
	if err != nil {
		panic(err)
	}
	dao.db = db
	return dao
}

func (dao *Dao) SaveSwapRecord(rec *SwapRecord) error {
	return dao.db.Create(rec).Error
}

func (dao *Dao) SaveLiquidityRecord(rec *LiquidityRecord) error {
	return dao.db.Create(rec).Error
}

func (dao *Dao) SelectSwapRecords(pair string, limit int) ([]*SwapRecord, error) {
	records := make([]*SwapRecord, 0)
	q := dao.db.Order("id desc").Limit(limit)
	if pair != "" {
		q = q.Where("pair = ?", pair)
	}
	res := q.Find(&records)
	return records, res.Error
}

func (dao *Dao) SelectLiquidityRecords(pair string, limit int) ([]*LiquidityRecord, error) {
	records := make([]*LiquidityRecord, 0)
	q := dao.db.Order("id desc").Limit(limit)
	if pair != "" {
		q = q.Where("pair = ?", pair)
	}
	res := q.Find(&records)
	return records, res.Error
}
