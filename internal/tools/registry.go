package tools

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ErrToolNotFound 工具不存在
var ErrToolNotFound = errors.New("工具不存在")

var knownKinds = map[string]bool{KindString: true, KindDate: true, KindTreatment: true}

// Registry 预约查询工具表
type Registry struct {
	tools  map[string]*Tool
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewRegistry 创建工具表
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: logger,
	}
}

// Register 校验定义后登记工具，重名报错
func (r *Registry) Register(tool *Tool) error {
	if tool.Name == "" || tool.Handler == nil {
		return fmt.Errorf("工具定义不完整: %q", tool.Name)
	}
	seen := make(map[string]bool, len(tool.Params))
	for _, p := range tool.Params {
		if seen[p.Name] {
			return fmt.Errorf("工具 %s 参数重复: %s", tool.Name, p.Name)
		}
		if !knownKinds[p.Kind] {
			return fmt.Errorf("工具 %s 参数 %s 类型未知: %s", tool.Name, p.Name, p.Kind)
		}
		seen[p.Name] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("工具已登记: %s", tool.Name)
	}
	r.tools[tool.Name] = tool
	r.logger.Debug("工具已登记", zap.String("name", tool.Name), zap.Int("params", len(tool.Params)))
	return nil
}

// Lookup 按名称查找
func (r *Registry) Lookup(name string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return tool, nil
}

// Definitions 按名称排序的工具定义
func (r *Registry) Definitions() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Invoke 校验参数后执行查询
func (r *Registry) Invoke(call Call) (any, error) {
	tool, err := r.Lookup(call.Name)
	if err != nil {
		return nil, err
	}

	args, err := tool.bind(call.Arguments)
	if err != nil {
		r.logger.Info("工具参数校验失败",
			zap.String("tool", call.Name),
			zap.String("callId", call.ID),
			zap.Error(err))
		return nil, err
	}

	result, err := tool.Handler(args)
	if err != nil {
		r.logger.Error("工具执行失败",
			zap.String("tool", call.Name),
			zap.String("callId", call.ID),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// Count 已登记的工具数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
