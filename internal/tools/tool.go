package tools

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrInvalidArguments 调用参数不合法
var ErrInvalidArguments = errors.New("工具参数不合法")

// ArgumentError 单个参数校验失败
type ArgumentError struct {
	Tool   string
	Param  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: 参数 %s %s", e.Tool, e.Param, e.Reason)
}

func (e *ArgumentError) Unwrap() error { return ErrInvalidArguments }

// 参数类型
const (
	KindString    = "string"
	KindDate      = "date"      // YYYY-MM-DD
	KindTreatment = "treatment" // 大小写和空格不敏感，按 snake_case 归一
)

const dateLayout = "2006-01-02"

// Param 工具参数定义
type Param struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"`
}

// Tool 预约协作方提供的只读查询
type Tool struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Params      []Param                 `json:"params"`
	Handler     func(Args) (any, error) `json:"-"`
}

// Args 校验并归一后的参数
type Args struct {
	values map[string]string
	dates  map[string]time.Time
}

// String 返回参数值，未提供时为空串
func (a Args) String(name string) string { return a.values[name] }

// Date 返回 date 类型参数
func (a Args) Date(name string) time.Time { return a.dates[name] }

// Call 工具调用请求
type Call struct {
	ID        string         `json:"id"`
	Name      string         `json:"name" binding:"required"`
	Arguments map[string]any `json:"arguments"`
}

// Result 工具调用结果
type Result struct {
	CallID string `json:"callId,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// bind 按参数定义校验原始参数，拒绝未声明的参数
func (t *Tool) bind(raw map[string]any) (Args, error) {
	args := Args{values: map[string]string{}, dates: map[string]time.Time{}}

	for name := range raw {
		if !slices.ContainsFunc(t.Params, func(p Param) bool { return p.Name == name }) {
			return args, t.argErr(name, "未声明")
		}
	}

	for _, p := range t.Params {
		v, ok := raw[p.Name]
		if !ok || v == nil {
			if p.Required {
				return args, t.argErr(p.Name, "为必填项")
			}
			continue
		}
		s, ok := v.(string)
		if !ok {
			return args, t.argErr(p.Name, "应为字符串")
		}
		s = strings.TrimSpace(s)
		if s == "" {
			if p.Required {
				return args, t.argErr(p.Name, "不能为空")
			}
			continue
		}

		switch p.Kind {
		case KindDate:
			d, err := time.Parse(dateLayout, s)
			if err != nil {
				return args, t.argErr(p.Name, "应为 YYYY-MM-DD 格式")
			}
			args.dates[p.Name] = d
		case KindTreatment:
			s = normalizeTreatment(s)
		}
		if len(p.Enum) > 0 && !slices.Contains(p.Enum, s) {
			return args, t.argErr(p.Name, fmt.Sprintf("取值 %q 不在可选范围内", s))
		}
		args.values[p.Name] = s
	}
	return args, nil
}

func (t *Tool) argErr(param, reason string) error {
	return &ArgumentError{Tool: t.Name, Param: param, Reason: reason}
}
