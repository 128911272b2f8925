package domain

// ReasonCode names the decision branch that produced a classification.
type ReasonCode string

// Reason codes. Each maps to exactly one branch of the classifier.
const (
	ReasonForceDisplay          ReasonCode = "FORCE_DISPLAY_PREFILTER"
	ReasonExplicitGeoMarket     ReasonCode = "EXPLICIT_GEO_MARKET"
	ReasonExplicitDisplayRefine ReasonCode = "EXPLICIT_DISPLAY_REFINED"

	ReasonBrandSalesFallback ReasonCode = "BRAND_SALES_FALLBACK"
	ReasonNoDomainMatch      ReasonCode = "NO_DOMAIN_MATCH"

	ReasonAISmartphoneToFoldable   ReasonCode = "AI_SMARTPHONE_TO_FOLDABLE"
	ReasonAISmartphoneToSmartphone ReasonCode = "AI_SMARTPHONE_TO_SMARTPHONE"

	ReasonFoldablePriority      ReasonCode = "FOLDABLE_PRIORITY"
	ReasonSmartphoneAPPriority  ReasonCode = "SMARTPHONE_AP_PRIORITY"
	ReasonRobotVacuumPriority   ReasonCode = "ROBOT_VACUUM_PRIORITY"
	ReasonSemiconductorPriority ReasonCode = "SEMICONDUCTOR_PRIORITY"

	ReasonOLEDLCDToTV ReasonCode = "OLED_LCD_TO_TV"
	ReasonDomainTV    ReasonCode = "DOMAIN_TV"

	ReasonSmartphoneWithSignal      ReasonCode = "SMARTPHONE_WITH_SIGNAL"
	ReasonSecurityWithSignal        ReasonCode = "SECURITY_WITH_SIGNAL"
	ReasonXRWithSignal              ReasonCode = "XR_WITH_SIGNAL"
	ReasonSmartWatchWithSignal      ReasonCode = "SMARTWATCH_WITH_SIGNAL"
	ReasonRobotWithSignal           ReasonCode = "ROBOT_WITH_SIGNAL"
	ReasonElectricVehicleWithSignal ReasonCode = "ELECTRIC_VEHICLE_WITH_SIGNAL"

	ReasonDomainFallbackPriority       ReasonCode = "DOMAIN_FALLBACK_PRIORITY"
	ReasonSmartphoneBrandSalesFallback ReasonCode = "SMARTPHONE_BRAND_SALES_FALLBACK"
	ReasonSmartphoneNoSignal           ReasonCode = "SMARTPHONE_NO_SIGNAL"
	ReasonDomainEmptyAfterFilter       ReasonCode = "DOMAIN_EMPTY_AFTER_FILTER"

	ReasonSourceHintDisplay ReasonCode = "SOURCE_HINT_DISPLAY"
)

// ReasonBrandSalesToSmartphone is the historical name of the brand and sales
// fallback; it is an alias, not a separate branch.
const ReasonBrandSalesToSmartphone = ReasonBrandSalesFallback

// ReasonCodes lists every reason code in pipeline order.
var ReasonCodes = []ReasonCode{
	ReasonForceDisplay,
	ReasonExplicitGeoMarket,
	ReasonExplicitDisplayRefine,
	ReasonBrandSalesFallback,
	ReasonNoDomainMatch,
	ReasonAISmartphoneToFoldable,
	ReasonAISmartphoneToSmartphone,
	ReasonFoldablePriority,
	ReasonSmartphoneAPPriority,
	ReasonRobotVacuumPriority,
	ReasonSemiconductorPriority,
	ReasonOLEDLCDToTV,
	ReasonDomainTV,
	ReasonSmartphoneWithSignal,
	ReasonSecurityWithSignal,
	ReasonXRWithSignal,
	ReasonSmartWatchWithSignal,
	ReasonRobotWithSignal,
	ReasonElectricVehicleWithSignal,
	ReasonDomainFallbackPriority,
	ReasonSmartphoneBrandSalesFallback,
	ReasonSmartphoneNoSignal,
	ReasonDomainEmptyAfterFilter,
	ReasonSourceHintDisplay,
}

// Valid reports whether r is one of ReasonCodes.
func (r ReasonCode) Valid() bool {
	for _, c := range ReasonCodes {
		if c == r {
			return true
		}
	}
	return false
}
