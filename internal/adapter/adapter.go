// internal/adapter/adapter.go
package adapter

import (
	"fmt"

	"RosterGraph/internal/config"
	"RosterGraph/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// ========== 全局工厂函数注册表（依赖interfaces包） ==========
var factoryRegistry = make(map[string]interfaces.Factory)

// Register 供适配器init函数调用，注册工厂函数
func Register(name string, factory interfaces.Factory) {
	if factory == nil {
		panic(fmt.Sprintf("数据源%s的工厂函数不能为nil", name))
	}
	if _, exists := factoryRegistry[name]; exists {
		logrus.Warnf("数据源%s的适配器已注册，将覆盖原有实现", name)
	}
	factoryRegistry[name] = factory
}

// GetFactory 获取指定数据源的工厂函数
func GetFactory(name string) (interfaces.Factory, bool) {
	factory, ok := factoryRegistry[name]
	return factory, ok
}

// ListFactories 列出所有已注册的工厂函数数据源
func ListFactories() []string {
	var names []string
	for n := range factoryRegistry {
		names = append(names, n)
	}
	return names
}

// NewSource 按配置创建数据源适配器实例
func NewSource(cfg *config.SourceConfig, logger *logrus.Logger) (interfaces.RosterSource, error) {
	factory, ok := GetFactory(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("未支持的数据源: %s（已注册：%v）", cfg.Name, ListFactories())
	}
	src := factory(cfg, logger)
	if src == nil {
		return nil, fmt.Errorf("数据源%s工厂函数返回nil实例", cfg.Name)
	}
	return src, nil
}
