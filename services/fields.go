package services

import (
	"strings"

	"presale-tracker/models"
)

// Field is a canonical column concept of the feed.
type Field int

const (
	FieldProjectName Field = iota
	FieldDistrict
	FieldAddress
	FieldCaseType
	FieldCaseObject
	FieldUnitPrice
	FieldTotalPrice
	FieldTransferArea
	FieldFloor
	FieldDate
	FieldNotes
	FieldParkingPrice
	FieldParkingArea
	FieldRoomCount
)

// fieldAliases lists, in priority order, the header names each concept
// appears under: the Chinese label of the weekly feed and the machine codes
// of the open-data API variant.
var fieldAliases = map[Field][]string{
	FieldProjectName:  {"建案名稱", "BUILD_NAME", "case_name"},
	FieldDistrict:     {"行政區", "DISTRICT", "district"},
	FieldAddress:      {"土地區段位置建物區段門牌", "LOCATION", "address"},
	FieldCaseType:     {"CASE_T", "case_t"},
	FieldCaseObject:   {"交易標的", "CASE_F"},
	FieldUnitPrice:    {"單價元坪", "UPRICE"},
	FieldTotalPrice:   {"總價元", "TPRICE"},
	FieldTransferArea: {"建物移轉總面積坪", "FAREA"},
	FieldFloor:        {"交易樓層", "TBUILD"},
	FieldDate:         {"交易年月日", "SDATE"},
	FieldNotes:        {"備註", "RMNOTE"},
	FieldParkingPrice: {"車位總價元", "PPRICE"},
	FieldParkingArea:  {"車位移轉總面積坪", "PAREA"},
	FieldRoomCount:    {"建物現況格局-房", "BUILD_R"},
}

// Aliases returns the header names accepted for f.
func Aliases(f Field) []string {
	return fieldAliases[f]
}

// Resolve returns the value of the column matching f. Aliases are tried in
// order; each is compared case-insensitively against the trimmed headers.
// Within one alias the first matching column wins.
func Resolve(r models.RawRecord, f Field) (string, bool) {
	for _, alias := range fieldAliases[f] {
		for _, fld := range r.Fields {
			if fld.Header != "" && strings.EqualFold(strings.TrimSpace(fld.Header), alias) {
				return fld.Value, true
			}
		}
	}
	return "", false
}

// ResolveString is Resolve with a missing column read as "".
func ResolveString(r models.RawRecord, f Field) string {
	v, _ := Resolve(r, f)
	return v
}
