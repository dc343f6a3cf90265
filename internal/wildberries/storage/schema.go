package storage

import (
	"fmt"
	"strings"
)

// OwnerColumn scopes every persisted row to the credential it was fetched
// with; it participates in every unique key.
const OwnerColumn = "UserID"

// TableSchema is the authoritative shape of one target table. Record keys
// not listed in Columns are dropped by the writer: the schema is trusted,
// the API response is not. UniqueKey names the natural key within one
// owner's data; the owner column is appended implicitly.
type TableSchema struct {
	Name      string
	Columns   []string
	UniqueKey []string
}

// qualified renders the table target, optionally schema-qualified. Column
// and table names keep the vendor's camelCase and must stay quoted.
func (ts TableSchema) qualified(schemaName string) string {
	if schemaName == "" {
		return quoteIdent(ts.Name)
	}
	return schemaName + "." + quoteIdent(ts.Name)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteAll(names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdent(name)
	}
	return quoted
}

// ProductCardsSchema holds the catalog card rows from the content API.
var ProductCardsSchema = TableSchema{
	Name: "ProductCards",
	Columns: []string{
		"nmID", "imtID", "nmUUID", "subjectID", "subjectName", "vendorCode",
		"brand", "title", "description", "needKiz", "photos", "dimensions",
		"characteristics", "sizes", "tags", "createdAt", "updatedAt",
	},
	UniqueKey: []string{"nmID"},
}

var ProductPricesSchema = TableSchema{
	Name: "ProductPrices",
	Columns: []string{
		"nmID", "vendorCode", "sizes", "currencyIsoCode4217", "discount",
		"clubDiscount", "editableSizePrice",
	},
	UniqueKey: []string{"nmID"},
}

var OrdersStatsSchema = TableSchema{
	Name: "OrdersStats",
	Columns: []string{
		"date", "lastChangeDate", "warehouseName", "warehouseType",
		"countryName", "oblastOkrugName", "regionName", "supplierArticle",
		"nmId", "barcode", "category", "subject", "brand", "techSize",
		"incomeID", "isSupply", "isRealization", "totalPrice",
		"discountPercent", "spp", "finishedPrice", "priceWithDisc",
		"isCancel", "cancelDate", "orderType", "sticker", "gNumber", "srid",
	},
	UniqueKey: []string{"srid"},
}

var SalesStatsSchema = TableSchema{
	Name: "SalesStats",
	Columns: []string{
		"date", "lastChangeDate", "warehouseName", "warehouseType",
		"countryName", "oblastOkrugName", "regionName", "supplierArticle",
		"nmId", "barcode", "category", "subject", "brand", "techSize",
		"incomeID", "isSupply", "isRealization", "totalPrice",
		"discountPercent", "spp", "paymentSaleAmount", "forPay",
		"finishedPrice", "priceWithDisc", "saleID", "orderType", "sticker",
		"gNumber", "srid",
	},
	UniqueKey: []string{"srid"},
}

// WarehousesReportSchema rows are snapshots, unique per capture time.
var WarehousesReportSchema = TableSchema{
	Name: "WarehousesReport",
	Columns: []string{
		"brand", "subjectName", "nmId", "barcode", "vendorCode", "techSize",
		"volume", "inWayToClient", "inWayFromClient",
		"quantityWarehousesFull", "warehouses", "datetime",
	},
	UniqueKey: []string{"barcode", "datetime"},
}

var FinancialReportSchema = TableSchema{
	Name: "FinancialReport",
	Columns: []string{
		"realizationreport_id", "date_from", "date_to", "create_dt",
		"currency_name", "suppliercontract_code", "rrd_id", "gi_id",
		"fix_tariff_date_from", "fix_tariff_date_to", "subject_name",
		"nm_id", "brand_name", "sa_name", "ts_name", "barcode",
		"doc_type_name", "quantity", "retail_price", "retail_amount",
		"sale_percent", "commission_percent", "office_name",
		"supplier_oper_name", "order_dt", "sale_dt", "rr_dt", "shk_id",
		"retail_price_withdisc_rub", "delivery_amount", "return_amount",
		"delivery_rub", "gi_box_type_name", "product_discount_for_report",
		"supplier_promo", "rid", "ppvz_spp_prc", "ppvz_kvw_prc_base",
		"ppvz_kvw_prc", "sup_rating_prc_up", "is_kgvp_v2",
		"ppvz_sales_commission", "ppvz_for_pay", "ppvz_reward",
		"acquiring_fee", "acquiring_percent", "acquiring_bank", "ppvz_vw",
		"ppvz_vw_nds", "ppvz_office_id", "ppvz_office_name",
		"ppvz_supplier_id", "ppvz_supplier_name", "ppvz_inn",
		"declaration_number", "bonus_type_name", "sticker_id",
		"site_country", "penalty", "additional_payment",
		"rebill_logistic_cost", "rebill_logistic_org", "kiz", "storage_fee",
		"deduction", "acceptance", "srid", "report_type", "assembly_id",
		"is_srv_dbs", "payment_processing", "is_legal_entity",
	},
	UniqueKey: []string{"rrd_id"},
}

var ProductAdvertsSchema = TableSchema{
	Name: "ProductAdverts",
	Columns: []string{
		"endTime", "createTime", "changeTime", "startTime", "params", "name",
		"dailyBudget", "advertId", "status", "type", "paymentType",
		"searchPluseState",
	},
	UniqueKey: []string{"advertId"},
}

var ProductPromosSchema = TableSchema{
	Name: "ProductPromos",
	Columns: []string{
		"views", "clicks", "ctr", "cpc", "sum", "atbs", "orders", "cr",
		"shks", "sum_price", "name", "nmId", "date", "advertId", "appType",
	},
	UniqueKey: []string{"advertId", "nmId", "date", "appType"},
}

var PromoCalendarSchema = TableSchema{
	Name: "PromoCalendar",
	Columns: []string{
		"id", "name", "description", "advantages", "startDateTime",
		"endDateTime", "inPromoActionLeftovers", "inPromoActionTotal",
		"notInPromoActionLeftovers", "notInPromoActionTotal",
		"participationPercentage", "type", "exceptionProductsCount",
		"ranging", "nomenclatures",
	},
	UniqueKey: []string{"id"},
}

// Schemas lists every sync target table.
var Schemas = []TableSchema{
	ProductCardsSchema, ProductPricesSchema, OrdersStatsSchema,
	SalesStatsSchema, WarehousesReportSchema, FinancialReportSchema,
	ProductAdvertsSchema, ProductPromosSchema, PromoCalendarSchema,
}

// SchemaByName is a convenience lookup used by tests and tooling.
func SchemaByName(name string) (TableSchema, error) {
	for _, ts := range Schemas {
		if ts.Name == name {
			return ts, nil
		}
	}
	return TableSchema{}, fmt.Errorf("unknown table schema %q", name)
}
