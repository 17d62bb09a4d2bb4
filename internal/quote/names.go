package quote

import (
	"regexp"
	"strings"
)

// stockNames maps well-known A-share codes to display names. The CN quote
// endpoints serve GBK and sometimes return empty or mojibake names; this
// table is the offline fallback for those cases and for search.
var stockNames = map[string]string{
	// Shanghai main board
	"600000": "浦发银行",
	"600001": "邯郸钢铁",
	"600004": "白云机场",
	"600009": "上海机场",
	"600016": "民生银行",
	"600028": "中国石化",
	"600029": "南方航空",
	"600030": "中信证券",
	"600036": "招商银行",
	"600048": "保利发展",
	"600050": "中国联通",
	"600104": "上汽集团",
	"600276": "恒瑞医药",
	"600519": "贵州茅台",
	"600585": "海螺水泥",
	"600690": "海尔智家",
	"600809": "山西汾酒",
	"600837": "海通证券",
	"600887": "伊利股份",
	"600900": "长江电力",
	"601012": "隆基绿能",
	"601066": "中信建投",
	"601088": "中国神华",
	"601166": "兴业银行",
	"601186": "中国铁建",
	"601288": "农业银行",
	"601318": "中国平安",
	"601328": "交通银行",
	"601398": "工商银行",
	"601628": "中国人寿",
	"601668": "中国建筑",
	"601728": "中国电信",
	"601766": "中国中车",
	"601818": "光大银行",
	"601857": "中国石油",
	"601888": "中国中免",
	"601899": "紫金矿业",
	"601939": "建设银行",
	"601988": "中国银行",
	"603259": "药明康德",
	"603288": "海天味业",

	// Shenzhen main board
	"000001": "平安银行",
	"000002": "万科A",
	"000063": "中兴通讯",
	"000100": "TCL科技",
	"000166": "申万宏源",
	"000338": "潍柴动力",
	"000568": "泸州老窖",
	"000625": "长安汽车",
	"000651": "格力电器",
	"000725": "京东方A",
	"000858": "五粮液",
	"000876": "新希望",
	"000895": "双汇发展",
	"000977": "浪潮信息",

	// SME / ChiNext
	"002001": "新和成",
	"002007": "华兰生物",
	"002027": "分众传媒",
	"002142": "宁波银行",
	"002230": "科大讯飞",
	"002236": "大华股份",
	"002304": "洋河股份",
	"002352": "顺丰控股",
	"002415": "海康威视",
	"002460": "赣锋锂业",
	"002475": "立讯精密",
	"002594": "比亚迪",
	"002714": "牧原股份",

	// STAR market
	"688036": "传音控股",
	"688981": "中芯国际",
}

// NameForCode returns the known display name for a CN code, or a generic
// placeholder when the code is not in the table.
func NameForCode(code string) string {
	if name, ok := stockNames[code]; ok {
		return name
	}
	return PlaceholderName(code)
}

// PlaceholderName is the generic name used when nothing better is known.
func PlaceholderName(code string) string {
	return "股票" + code
}

// garbledPatterns match name strings corrupted by a wrong charset decode:
// replacement characters, control-character-only strings, all question
// marks, and runs of box-drawing or diamond glyphs.
var garbledPatterns = []*regexp.Regexp{
	regexp.MustCompile("�"),
	regexp.MustCompile(`^[\x00-\x1F\x7F-\x9F]+$`),
	regexp.MustCompile(`^\?+$`),
	regexp.MustCompile("^[◊○●◐-◿]+$"),
}

// IsGarbled reports whether a provider-supplied name is unusable.
func IsGarbled(name string) bool {
	if name == "" {
		return true
	}
	for _, p := range garbledPatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// CleanName sanitizes a provider-supplied name, substituting the lookup
// table (or placeholder) when the wire name is empty or garbled.
func CleanName(name, code string) string {
	name = strings.TrimSpace(name)
	if name == "" || IsGarbled(name) {
		return NameForCode(code)
	}
	return name
}
