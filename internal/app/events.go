package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/talkincode/storepro/internal/checkout"
	"github.com/talkincode/storepro/internal/domain"
)

// subscribeEvents attaches the audit handlers to checkout topics.
// Handlers run synchronously on the publishing goroutine, after commit.
func (a *Application) subscribeEvents() {
	if err := a.bus.Subscribe(checkout.TopicPurchaseCreated, a.onPurchaseCreated); err != nil {
		zap.L().Error("subscribe event failed", zap.String("topic", checkout.TopicPurchaseCreated), zap.Error(err))
	}
	if err := a.bus.Subscribe(checkout.TopicProductDepleted, a.onProductDepleted); err != nil {
		zap.L().Error("subscribe event failed", zap.String("topic", checkout.TopicProductDepleted), zap.Error(err))
	}
}

func (a *Application) onPurchaseCreated(p *domain.Purchase) {
	a.AddOprLog(p.Operator, "", "checkout",
		fmt.Sprintf("purchase #%d for %s, final %s", p.ID, p.CustomerName,
			domain.FormatMoney(p.FinalAmount, domain.SaleCurrency)))
}

func (a *Application) onProductDepleted(p *domain.Product) {
	zap.L().Info("product sold out and deactivated",
		zap.Int64("product_id", p.ID),
		zap.String("name", p.Name))
	a.AddOprLog("system", "", "product_depleted",
		fmt.Sprintf("product #%d %s sold out", p.ID, p.Name))
}
