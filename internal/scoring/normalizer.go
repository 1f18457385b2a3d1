package scoring

import (
	"strings"
	"unicode"
)

// synonymClusters 已知的技能同义词簇，成员均为规范化后的token
var synonymClusters = [][]string{
	{"javascript", "js", "nodejs", "node", "ecmascript"},
	{"typescript", "ts"},
	{"react", "reactjs"},
	{"vue", "vuejs"},
	{"angular", "angularjs"},
	{"golang", "go"},
	{"python", "py"},
	{"postgresql", "postgres", "psql"},
	{"mysql", "mariadb"},
	{"kubernetes", "k8s"},
	{"docker", "container"},
	{"qa", "testing", "qualityassurance"},
	{"ci", "cicd", "continuousintegration"},
	{"ml", "machinelearning"},
	{"aws", "amazonwebservices"},
}

// Normalizer 技能规范化器，负责token化与同义词扩展
type Normalizer struct {
	synonyms map[string][]string // token -> 同簇的全部token
}

// NewNormalizer 创建带默认同义词表的规范化器
func NewNormalizer() *Normalizer {
	n := &Normalizer{synonyms: make(map[string][]string)}
	for _, cluster := range synonymClusters {
		for _, member := range cluster {
			n.synonyms[member] = cluster
		}
	}
	return n
}

// Normalize 将技能字符串转换为规范token：小写、去首尾空白、去非字母数字字符。
// 纯函数，任意输入都不会失败。
func (n *Normalizer) Normalize(skill string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(strings.ToLower(skill)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Expand 返回token及其全部同义token的集合，未知token返回仅含自身的集合
func (n *Normalizer) Expand(token string) map[string]struct{} {
	set := map[string]struct{}{token: {}}
	for _, member := range n.synonyms[token] {
		set[member] = struct{}{}
	}
	return set
}

// ExpandSkill 规范化后再扩展，匹配计算的常用入口
func (n *Normalizer) ExpandSkill(skill string) map[string]struct{} {
	return n.Expand(n.Normalize(skill))
}

// Matches 判断两个原始技能串在规范化+同义词扩展后是否相交
func (n *Normalizer) Matches(skillA, skillB string) bool {
	setA := n.ExpandSkill(skillA)
	for token := range n.ExpandSkill(skillB) {
		if _, ok := setA[token]; ok {
			return true
		}
	}
	return false
}
