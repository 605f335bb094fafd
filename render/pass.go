package render

import "fmt"

// Pass identifies one of the two render stages. Each pass owns one
// descriptor set, one pipeline layout and one pipeline.
type Pass uint8

const (
	PassMain Pass = iota
	PassPost
)

var passes = []Pass{PassMain, PassPost}

func (p Pass) String() string {
	switch p {
	case PassMain:
		return "main"
	case PassPost:
		return "post"
	}
	return fmt.Sprintf("Pass(%d)", uint8(p))
}

func (p Pass) descriptorSetID() DescriptorSetID {
	return DescriptorSetID(p)
}

func (p Pass) pipelineLayoutID() PipelineLayoutID {
	return PipelineLayoutID(p)
}
