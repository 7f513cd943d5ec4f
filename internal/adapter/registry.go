package adapter

import (
	"fmt"

	"GameSync/internal/config"
	"GameSync/internal/interfaces"
	"GameSync/internal/model"

	"github.com/sirupsen/logrus"
)

// Factory 数据源适配器工厂函数签名
// 入参：数据源配置、日志实例
// 出参：实现GameProvider接口的适配器实例
type Factory func(cfg *config.ProviderConfig, logger *logrus.Logger) interfaces.GameProvider

// ========== 全局工厂函数注册表 ==========
var factoryRegistry = make(map[model.ProviderType]Factory)

// Register 供适配器init函数调用，注册工厂函数
func Register(provider model.ProviderType, factory Factory) {
	if factory == nil {
		panic(fmt.Sprintf("数据源%s的工厂函数不能为nil", provider))
	}
	if _, exists := factoryRegistry[provider]; exists {
		logrus.Warnf("数据源%s的适配器已注册，将覆盖原有实现", provider)
	}
	factoryRegistry[provider] = factory
}

// GetFactory 获取指定数据源的工厂函数
func GetFactory(provider model.ProviderType) (Factory, bool) {
	factory, ok := factoryRegistry[provider]
	return factory, ok
}

// ProviderRegistry 数据源实例注册表：配置里出现且工厂已注册的源才会被初始化
type ProviderRegistry struct {
	cfg       *config.Config
	logger    *logrus.Logger
	providers map[model.ProviderType]interfaces.GameProvider
}

func NewProviderRegistry(cfg *config.Config, logger *logrus.Logger) *ProviderRegistry {
	r := &ProviderRegistry{
		cfg:       cfg,
		logger:    logger,
		providers: make(map[model.ProviderType]interfaces.GameProvider),
	}

	// 遍历配置中的数据源，匹配工厂函数创建实例
	for name, providerCfg := range cfg.Providers {
		pt := model.ProviderType(name)
		factory, ok := GetFactory(pt)
		if !ok {
			r.logger.WithField("provider", name).Warn("未找到对应的工厂函数（init未注册？），跳过")
			continue
		}
		ins := factory(&providerCfg, logger)
		if ins == nil {
			r.logger.WithField("provider", name).Error("工厂函数返回nil适配器实例")
			continue
		}
		if ins.GetName() != name {
			r.logger.WithFields(logrus.Fields{
				"config_provider":  name,
				"adapter_provider": ins.GetName(),
			}).Error("适配器名称与配置不匹配，跳过")
			continue
		}
		r.providers[pt] = ins
	}
	r.logger.WithField("count", len(r.providers)).Info("数据源适配器初始化完成")
	return r
}

// Get 获取某个数据源实例
func (r *ProviderRegistry) Get(provider model.ProviderType) (interfaces.GameProvider, error) {
	ins, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("数据源%s未初始化适配器实例", provider)
	}
	return ins, nil
}

// Enabled 按配置的启用列表返回数据源实例（保持列表顺序，保证运行结果可复现）
func (r *ProviderRegistry) Enabled(names []string) []interfaces.GameProvider {
	var providers []interfaces.GameProvider
	for _, name := range names {
		ins, ok := r.providers[model.ProviderType(name)]
		if !ok {
			r.logger.WithField("provider", name).Warn("启用列表中的数据源没有可用实例，跳过")
			continue
		}
		providers = append(providers, ins)
	}
	return providers
}
