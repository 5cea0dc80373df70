package services

import (
	"presale-tracker/models"
	"presale-tracker/utils"
)

func newTestLogger() *utils.Logger { return utils.NopLogger() }

// rec builds a RawRecord from alternating header, value arguments.
func rec(kv ...string) models.RawRecord {
	r := models.RawRecord{}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Fields = append(r.Fields, models.Field{Header: kv[i], Value: kv[i+1]})
	}
	return r
}

// presaleRow is a typical weekly-feed row in NTD, before unit correction.
func presaleRow(name, district, unitPrice, totalPrice, date string) models.RawRecord {
	return rec(
		"CASE_T", "預售屋",
		"建案名稱", name,
		"行政區", district,
		"土地區段位置建物區段門牌", "臺北市"+district+"某路1號",
		"單價元坪", unitPrice,
		"總價元", totalPrice,
		"建物移轉總面積坪", "30",
		"車位移轉總面積坪", "0",
		"交易樓層", "五層",
		"建物現況格局-房", "2",
		"交易年月日", date,
	)
}
