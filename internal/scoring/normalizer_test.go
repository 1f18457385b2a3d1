package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"小写化", "React", "react"},
		{"去除点号", "React.js", "reactjs"},
		{"去除首尾空白", "  Node.js  ", "nodejs"},
		{"去除连字符", "CI-CD", "cicd"},
		{"含数字", "Vue3", "vue3"},
		{"空串", "", ""},
		{"纯符号", "+++", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
}

func TestExpand(t *testing.T) {
	n := NewNormalizer()

	// 已知同义词簇应整簇展开
	set := n.Expand("js")
	assert.Contains(t, set, "javascript")
	assert.Contains(t, set, "nodejs")
	assert.Contains(t, set, "js")

	// 未知token只展开为自身
	unknown := n.Expand("cobol")
	assert.Len(t, unknown, 1)
	assert.Contains(t, unknown, "cobol")
}

func TestMatches(t *testing.T) {
	n := NewNormalizer()

	// 格式差异不应导致漏匹配
	assert.True(t, n.Matches("React.js", "react"))
	assert.True(t, n.Matches("JavaScript", "node.js"))
	assert.True(t, n.Matches("QA", "quality-assurance"))
	assert.True(t, n.Matches("k8s", "Kubernetes"))

	assert.False(t, n.Matches("React", "Angular"))
	assert.False(t, n.Matches("python", "java"))
}
