package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/storepro/config"
	"github.com/talkincode/storepro/internal/auth"
	"github.com/talkincode/storepro/internal/checkout"
	"github.com/talkincode/storepro/internal/domain"
	"github.com/talkincode/storepro/internal/testutil"
	"github.com/talkincode/storepro/pkg/common"
)

func newTestApp(t *testing.T) *Application {
	cfg := new(config.AppConfig)
	*cfg = *config.DefaultAppConfig
	cfg.System.Workdir = t.TempDir()
	cfg.Store.AdminPassword = "s3cret"

	a := NewApplication(cfg)
	a.InitComponents(testutil.NewDB(t))
	return a
}

func TestInitComponentsSeedsAdmin(t *testing.T) {
	a := newTestApp(t)

	var opr domain.SysOpr
	require.NoError(t, a.DB().Where("username = ?", superUsername).First(&opr).Error)
	assert.Equal(t, "super", opr.Level)
	assert.Equal(t, common.ENABLED, opr.Status)
	assert.True(t, auth.CheckPassword(opr.Password, "s3cret"))

	// seeding twice keeps a single account
	a.checkSuper()
	var n int64
	require.NoError(t, a.DB().Model(&domain.SysOpr{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCheckSuperRepairsAccount(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.DB().Model(&domain.SysOpr{}).Where("username = ?", superUsername).
		Updates(map[string]interface{}{"status": common.DISABLED, "level": "operator", "password": ""}).Error)

	a.checkSuper()

	var opr domain.SysOpr
	require.NoError(t, a.DB().Where("username = ?", superUsername).First(&opr).Error)
	assert.Equal(t, "super", opr.Level)
	assert.Equal(t, common.ENABLED, opr.Status)
	assert.True(t, auth.CheckPassword(opr.Password, "s3cret"))
}

func TestSchedClearExpireData(t *testing.T) {
	a := newTestApp(t)
	db := a.DB()
	require.NoError(t, db.Create(&domain.SysOprLog{ID: 1, OprName: "admin", OptAction: "login", OptTime: time.Now().AddDate(-2, 0, 0)}).Error)
	require.NoError(t, db.Create(&domain.SysOprLog{ID: 2, OprName: "admin", OptAction: "login", OptTime: time.Now()}).Error)

	a.SchedClearExpireData()

	var ids []int64
	require.NoError(t, db.Model(&domain.SysOprLog{}).Pluck("id", &ids).Error)
	assert.Equal(t, []int64{2}, ids)
}

func TestSchedLowStockReport(t *testing.T) {
	a := newTestApp(t)
	testutil.SeedProduct(t, a.DB(), "cable", "5", 2)
	assert.NotPanics(t, a.SchedLowStockReport)
}

func TestCheckoutEventsWriteOprLog(t *testing.T) {
	a := newTestApp(t)
	p := testutil.SeedProduct(t, a.DB(), "router", "100", 1)

	_, err := a.Checkout().Checkout(context.Background(), checkout.Request{
		CustomerName: "Ahmed",
		Items:        []checkout.CartItem{{ID: p.ID, Quantity: 1}},
		Operator:     "admin",
	})
	require.NoError(t, err)

	var logs []domain.SysOprLog
	require.NoError(t, a.DB().Order("opt_action").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, "checkout", logs[0].OptAction)
	assert.Equal(t, "admin", logs[0].OprName)
	assert.Contains(t, logs[0].OptDesc, "Ahmed")
	assert.Equal(t, "product_depleted", logs[1].OptAction)
}

func TestMigrateAndInitDb(t *testing.T) {
	a := newTestApp(t)
	testutil.SeedProduct(t, a.DB(), "cable", "5", 2)
	require.NoError(t, a.MigrateDB(false))

	a.InitDb()
	var n int64
	require.NoError(t, a.DB().Model(&domain.Product{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, a.DB().Model(&domain.SysOpr{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}
