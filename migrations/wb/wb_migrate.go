package wb

import (
	"database/sql"
	"fmt"
	"log"

	"wbsync/pkg/dbconnect/migration"
)

// SchemaName is the Postgres schema holding every sync table.
const SchemaName = "wildberries"

// All returns the migrations in apply order.
func All() []migration.MigrationInterface {
	return []migration.MigrationInterface{
		&CreateWBSchema{},
		&CreateAPIKeysTable{},
		&CreateProductCardsTable{},
		&CreateProductPricesTable{},
		&CreateOrdersStatsTable{},
		&CreateSalesStatsTable{},
		&CreateWarehousesReportTable{},
		&CreateFinancialReportTable{},
		&CreateProductAdvertsTable{},
		&CreateProductPromosTable{},
		&CreatePromoCalendarTable{},
	}
}

func apply(db *sql.DB, name string, statements ...string) error {
	for _, statement := range statements {
		if _, err := db.Exec(statement); err != nil {
			return fmt.Errorf("migration %q: %w", name, err)
		}
	}
	log.Printf("Migration %q completed successfully.", name)
	return nil
}

type CreateWBSchema struct{}

func (m *CreateWBSchema) UpMigration(db *sql.DB) error {
	_, err := db.Exec(`CREATE SCHEMA IF NOT EXISTS wildberries;`)
	if err != nil {
		return fmt.Errorf("failed to create schema wildberries: %w", err)
	}
	return nil
}

// CreateAPIKeysTable holds the credentials; rows are managed by an external
// surface, the sync side only reads them and advances runs.
type CreateAPIKeysTable struct{}

func (m *CreateAPIKeysTable) UpMigration(db *sql.DB) error {
	return apply(db, "wildberries.APIKeys", `
	CREATE TABLE IF NOT EXISTS wildberries."APIKeys" (
		key_id SERIAL PRIMARY KEY,
		user_id VARCHAR(36),
		api_key VARCHAR(512),
		runs INTEGER DEFAULT 0
	);`)
}

type CreateProductCardsTable struct{}

func (m *CreateProductCardsTable) UpMigration(db *sql.DB) error {
	return apply(db, "wildberries.ProductCards", `
	CREATE TABLE IF NOT EXISTS wildberries."ProductCards" (
		auto_id SERIAL PRIMARY KEY,
		"nmID" BIGINT,
		"imtID" BIGINT,
		"nmUUID" VARCHAR(255),
		"subjectID" INTEGER,
		"subjectName" VARCHAR(255),
		"vendorCode" VARCHAR(255),
		"brand" VARCHAR(255),
		"title" VARCHAR(255),
		"description" TEXT,
		"needKiz" BOOLEAN,
		"photos" JSONB,
		"dimensions" JSONB,
		"characteristics" JSONB,
		"sizes" JSONB,
		"tags" JSONB,
		"createdAt" TIMESTAMPTZ,
		"updatedAt" TIMESTAMPTZ,
		"UserID" VARCHAR(36)
	);`, `
	CREATE UNIQUE INDEX IF NOT EXISTS uq_product_cards
		ON wildberries."ProductCards" ("nmID", "UserID");`)
}

type CreateProductPricesTable struct{}

func (m *CreateProductPricesTable) UpMigration(db *sql.DB) error {
	return apply(db, "wildberries.ProductPrices", `
	CREATE TABLE IF NOT EXISTS wildberries."ProductPrices" (
		auto_id SERIAL PRIMARY KEY,
		"nmID" BIGINT,
		"vendorCode" VARCHAR(255),
		"sizes" JSONB,
		"currencyIsoCode4217" VARCHAR(3),
		"discount" INTEGER,
		"clubDiscount" INTEGER,
		"editableSizePrice" BOOLEAN,
		"UserID" VARCHAR(36)
	);`, `
	CREATE UNIQUE INDEX IF NOT EXISTS uq_product_prices
		ON wildberries."ProductPrices" ("nmID", "UserID");`)
}

type CreateOrdersStatsTable struct{}

func (m *CreateOrdersStatsTable) UpMigration(db *sql.DB) error {
	return apply(db, "wildberries.OrdersStats", `
	CREATE TABLE IF NOT EXISTS wildberries."OrdersStats" (
		auto_id SERIAL PRIMARY KEY,
		"date" TIMESTAMPTZ,
		"lastChangeDate" TIMESTAMPTZ,
		"warehouseName" VARCHAR(255),
		"warehouseType" VARCHAR(255),
		"countryName" VARCHAR(255),
		"oblastOkrugName" VARCHAR(255),
		"regionName" VARCHAR(255),
		"supplierArticle" VARCHAR(255),
		"nmId" BIGINT,
		"barcode" VARCHAR(255),
		"category" VARCHAR(255),
		"subject" VARCHAR(255),
		"brand" VARCHAR(255),
		"techSize" VARCHAR(255),
		"incomeID" BIGINT,
		"isSupply" BOOLEAN,
		"isRealization" BOOLEAN,
		"totalPrice" NUMERIC,
		"discountPercent" INTEGER,
		"spp" NUMERIC,
		"finishedPrice" NUMERIC,
		"priceWithDisc" NUMERIC,
		"isCancel" BOOLEAN,
		"cancelDate" TIMESTAMPTZ,
		"orderType" VARCHAR(255),
		"sticker" VARCHAR(255),
		"gNumber" VARCHAR(255),
		"srid" VARCHAR(255),
		"UserID" VARCHAR(36)
	);`, `
	CREATE UNIQUE INDEX IF NOT EXISTS uq_orders_stats
		ON wildberries."OrdersStats" ("srid", "UserID");`)
}

type CreateSalesStatsTable struct{}

func (m *CreateSalesStatsTable) UpMigration(db *sql.DB) error {
	return apply(db, "wildberries.SalesStats", `
	CREATE TABLE IF NOT EXISTS wildberries."SalesStats" (
		auto_id SERIAL PRIMARY KEY,
		"date" TIMESTAMPTZ,
		"lastChangeDate" TIMESTAMPTZ,
		"warehouseName" VARCHAR(255),
		"warehouseType" VARCHAR(255),
		"countryName" VARCHAR(255),
		"oblastOkrugName" VARCHAR(255),
		"regionName" VARCHAR(255),
		"supplierArticle" VARCHAR(255),
		"nmId" BIGINT,
		"barcode" VARCHAR(255),
		"category" VARCHAR(255),
		"subject" VARCHAR(255),
		"brand" VARCHAR(255),
		"techSize" VARCHAR(255),
		"incomeID" BIGINT,
		"isSupply" BOOLEAN,
		"isRealization" BOOLEAN,
		"totalPrice" NUMERIC,
		"discountPercent" INTEGER,
		"spp" NUMERIC,
		"paymentSaleAmount" NUMERIC,
		"forPay" NUMERIC,
		"finishedPrice" NUMERIC,
		"priceWithDisc" NUMERIC,
		"saleID" VARCHAR(255),
		"orderType" VARCHAR(255),
		"sticker" VARCHAR(255),
		"gNumber" VARCHAR(255),
		"srid" VARCHAR(255),
		"UserID" VARCHAR(36)
	);`, `
	CREATE UNIQUE INDEX IF NOT EXISTS uq_sales_stats
		ON wildberries."SalesStats" ("srid", "UserID");`)
}

type CreateWarehousesReportTable struct{}

func (m *CreateWarehousesReportTable) UpMigration(db *sql.DB) error {
	return apply(db, "wildberries.WarehousesReport", `
	CREATE TABLE IF NOT EXISTS wildberries."WarehousesReport" (
		auto_id SERIAL PRIMARY KEY,
		"brand" VARCHAR(255),
		"subjectName" VARCHAR(255),
		"nmId" BIGINT,
		"barcode" VARCHAR(255),
		"vendorCode" VARCHAR(255),
		"techSize" VARCHAR(255),
		"volume" DOUBLE PRECISION,
		"inWayToClient" INTEGER,
		"inWayFromClient" INTEGER,
		"quantityWarehousesFull" INTEGER,
		"warehouses" JSONB,
		"datetime" TIMESTAMP,
		"UserID" VARCHAR(36)
	);`, `
	CREATE UNIQUE INDEX IF NOT EXISTS uq_warehouses_report
		ON wildberries."WarehousesReport" ("barcode", "datetime", "UserID");`)
}

type CreateFinancialReportTable struct{}

func (m *CreateFinancialReportTable) UpMigration(db *sql.DB) error {
	return apply(db, "wildberries.FinancialReport", `
	CREATE TABLE IF NOT EXISTS wildberries."FinancialReport" (
		auto_id SERIAL PRIMARY KEY,
		"realizationreport_id" BIGINT,
		"date_from" DATE,
		"date_to" DATE,
		"create_dt" DATE,
		"currency_name" VARCHAR(255),
		"suppliercontract_code" VARCHAR(255),
		"rrd_id" BIGINT,
		"gi_id" BIGINT,
		"fix_tariff_date_from" DATE,
		"fix_tariff_date_to" DATE,
		"subject_name" VARCHAR(255),
		"nm_id" BIGINT,
		"brand_name" VARCHAR(255),
		"sa_name" VARCHAR(255),
		"ts_name" VARCHAR(255),
		"barcode" VARCHAR(255),
		"doc_type_name" VARCHAR(255),
		"quantity" INTEGER,
		"retail_price" NUMERIC,
		"retail_amount" NUMERIC,
		"sale_percent" INTEGER,
		"commission_percent" DOUBLE PRECISION,
		"office_name" VARCHAR(255),
		"supplier_oper_name" VARCHAR(255),
		"order_dt" TIMESTAMPTZ,
		"sale_dt" TIMESTAMPTZ,
		"rr_dt" TIMESTAMPTZ,
		"shk_id" BIGINT,
		"retail_price_withdisc_rub" NUMERIC,
		"delivery_amount" INTEGER,
		"return_amount" INTEGER,
		"delivery_rub" NUMERIC,
		"gi_box_type_name" VARCHAR(255),
		"product_discount_for_report" NUMERIC,
		"supplier_promo" NUMERIC,
		"rid" BIGINT,
		"ppvz_spp_prc" NUMERIC,
		"ppvz_kvw_prc_base" DOUBLE PRECISION,
		"ppvz_kvw_prc" DOUBLE PRECISION,
		"sup_rating_prc_up" NUMERIC,
		"is_kgvp_v2" NUMERIC,
		"ppvz_sales_commission" NUMERIC,
		"ppvz_for_pay" DOUBLE PRECISION,
		"ppvz_reward" DOUBLE PRECISION,
		"acquiring_fee" DOUBLE PRECISION,
		"acquiring_percent" DOUBLE PRECISION,
		"acquiring_bank" VARCHAR(255),
		"ppvz_vw" DOUBLE PRECISION,
		"ppvz_vw_nds" DOUBLE PRECISION,
		"ppvz_office_id" BIGINT,
		"ppvz_office_name" VARCHAR(255),
		"ppvz_supplier_id" BIGINT,
		"ppvz_supplier_name" VARCHAR(255),
		"ppvz_inn" VARCHAR(255),
		"declaration_number" VARCHAR(255),
		"bonus_type_name" VARCHAR(255),
		"sticker_id" VARCHAR(255),
		"site_country" VARCHAR(255),
		"penalty" NUMERIC,
		"additional_payment" NUMERIC,
		"rebill_logistic_cost" NUMERIC,
		"rebill_logistic_org" VARCHAR(255),
		"kiz" VARCHAR(255),
		"storage_fee" NUMERIC,
		"deduction" NUMERIC,
		"acceptance" NUMERIC,
		"srid" VARCHAR(255),
		"report_type" INTEGER,
		"assembly_id" BIGINT,
		"is_srv_dbs" BOOLEAN,
		"payment_processing" VARCHAR(255),
		"is_legal_entity" BOOLEAN,
		"UserID" VARCHAR(36)
	);`, `
	CREATE UNIQUE INDEX IF NOT EXISTS uq_financial_report
		ON wildberries."FinancialReport" ("rrd_id", "UserID");`)
}

type CreateProductAdvertsTable struct{}

func (m *CreateProductAdvertsTable) UpMigration(db *sql.DB) error {
	return apply(db, "wildberries.ProductAdverts", `
	CREATE TABLE IF NOT EXISTS wildberries."ProductAdverts" (
		auto_id SERIAL PRIMARY KEY,
		"endTime" TIMESTAMPTZ,
		"createTime" TIMESTAMPTZ,
		"changeTime" TIMESTAMPTZ,
		"startTime" TIMESTAMPTZ,
		"params" JSONB,
		"name" VARCHAR(255),
		"dailyBudget" NUMERIC,
		"advertId" BIGINT,
		"status" VARCHAR(255),
		"type" VARCHAR(255),
		"paymentType" VARCHAR(255),
		"searchPluseState" BOOLEAN,
		"UserID" VARCHAR(36)
	);`, `
	CREATE UNIQUE INDEX IF NOT EXISTS uq_product_adverts
		ON wildberries."ProductAdverts" ("advertId", "UserID");`)
}

type CreateProductPromosTable struct{}

func (m *CreateProductPromosTable) UpMigration(db *sql.DB) error {
	return apply(db, "wildberries.ProductPromos", `
	CREATE TABLE IF NOT EXISTS wildberries."ProductPromos" (
		auto_id SERIAL PRIMARY KEY,
		"views" INTEGER,
		"clicks" INTEGER,
		"ctr" DOUBLE PRECISION,
		"cpc" DOUBLE PRECISION,
		"sum" DOUBLE PRECISION,
		"atbs" INTEGER,
		"orders" INTEGER,
		"cr" DOUBLE PRECISION,
		"shks" INTEGER,
		"sum_price" DOUBLE PRECISION,
		"name" VARCHAR(255),
		"nmId" BIGINT,
		"date" TIMESTAMPTZ,
		"advertId" BIGINT,
		"appType" INTEGER,
		"UserID" VARCHAR(36)
	);`, `
	CREATE UNIQUE INDEX IF NOT EXISTS uq_product_promos
		ON wildberries."ProductPromos" ("advertId", "nmId", "date", "appType", "UserID");`)
}

type CreatePromoCalendarTable struct{}

func (m *CreatePromoCalendarTable) UpMigration(db *sql.DB) error {
	return apply(db, "wildberries.PromoCalendar", `
	CREATE TABLE IF NOT EXISTS wildberries."PromoCalendar" (
		auto_id SERIAL PRIMARY KEY,
		"id" BIGINT,
		"name" VARCHAR(255),
		"description" TEXT,
		"advantages" JSONB,
		"startDateTime" TIMESTAMPTZ,
		"endDateTime" TIMESTAMPTZ,
		"inPromoActionLeftovers" INTEGER,
		"inPromoActionTotal" INTEGER,
		"notInPromoActionLeftovers" INTEGER,
		"notInPromoActionTotal" INTEGER,
		"participationPercentage" INTEGER,
		"type" VARCHAR(255),
		"exceptionProductsCount" INTEGER,
		"ranging" JSONB,
		"nomenclatures" JSONB,
		"UserID" VARCHAR(36)
	);`, `
	CREATE UNIQUE INDEX IF NOT EXISTS uq_promo_calendar
		ON wildberries."PromoCalendar" ("id", "UserID");`)
}
