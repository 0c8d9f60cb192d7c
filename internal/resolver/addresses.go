package resolver

import (
	"context"

	"geo-api/internal/cache"
	"geo-api/internal/logger"
	"geo-api/internal/metrics"
	"geo-api/internal/model"
)

// AddressSaver：把解析出的地址写回邮编区数据源
type AddressSaver interface {
	SaveAddresses(ctx context.Context, pc string, addresses []string) error
}

// AddressGate：邮编地址的惰性获取，受负向检查登记器约束
// 约束：成功（非空）不写标记，由正向数据本身表示；失败或为空写入长期标记
type AddressGate struct {
	registry *cache.NegativeRegistry
	provider AddressProvider
	saver    AddressSaver
}

func NewAddressGate(reg *cache.NegativeRegistry, provider AddressProvider, saver AddressSaver) *AddressGate {
	return &AddressGate{registry: reg, provider: provider, saver: saver}
}

// Ensure：为缺少地址的邮编区补全地址；返回是否新增了地址
func (g *AddressGate) Ensure(ctx context.Context, z *model.PcZone) bool {
	if g == nil || z == nil || z.PC == "" || z.HasAddresses() {
		return false
	}
	if g.registry.HasBeenChecked(ctx, z.PC) {
		metrics.NegativeSkipsTotal.Inc()
		logger.L().Debug("address_check_skip", "pc", z.PC)
		return false
	}
	if g.provider == nil {
		return false
	}
	addrs, err := g.provider.Addresses(ctx, z.PC)
	if err != nil || len(addrs) == 0 {
		// 请求已取消：不写标记
		if ctx.Err() != nil {
			return false
		}
		g.registry.MarkChecked(ctx, z.PC, 0)
		logger.L().Info("address_check_marked", "pc", z.PC, "kind", Kind(err))
		return false
	}
	z.Addresses = addrs
	if g.saver != nil {
		if err := g.saver.SaveAddresses(ctx, z.PC, addrs); err != nil {
			logger.L().Warn("address_save_fail", "pc", z.PC, "err", err)
		}
	}
	return true
}
