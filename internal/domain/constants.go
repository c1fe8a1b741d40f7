package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Points transaction reasons.
const (
	ReasonRegister         = "register"
	ReasonCheckin          = "checkin"
	ReasonReferral         = "referral"
	ReasonAchievement      = "achievement"
	ReasonStreak           = "streak"
	ReasonRedemption       = "redemption"
	ReasonManualAdjustment = "manual_adjustment"
	ReasonReview           = "review"
)

var validReasons = map[string]bool{
	ReasonRegister:         true,
	ReasonCheckin:          true,
	ReasonReferral:         true,
	ReasonAchievement:      true,
	ReasonStreak:           true,
	ReasonRedemption:       true,
	ReasonManualAdjustment: true,
	ReasonReview:           true,
}

func ValidReason(r string) bool { return validReasons[r] }

const (
	ReferralStatusPending   = "pending"
	ReferralStatusCompleted = "completed"
	ReferralStatusRewarded  = "rewarded"
)

const (
	RedemptionStatusActive  = "active"
	RedemptionStatusUsed    = "used"
	RedemptionStatusExpired = "expired"
)

// Leaderboard timeframes.
const (
	TimeframeAll   = "all"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
	TimeframeYear  = "year"
)

// Admin-configurable settings (the legacy points-config object).
const (
	SettingPointsRegister         = "points.register"
	SettingPointsCheckin          = "points.checkin"
	SettingPointsReferralReferrer = "points.referral_referrer"
	SettingPointsReferralReferred = "points.referral_referred"
	SettingPointsReview           = "points.review"
	SettingPointsStreakBonus      = "points.streak_bonus"
	SettingPointsStreakDays       = "points.streak_days"
	SettingRedemptionExpiryDays   = "redemption.expiry_days"
)

// DefaultSettings are seeded on startup when missing.
var DefaultSettings = map[string]string{
	SettingPointsRegister:         "100",
	SettingPointsCheckin:          "50",
	SettingPointsReferralReferrer: "200",
	SettingPointsReferralReferred: "50",
	SettingPointsReview:           "20",
	SettingPointsStreakBonus:      "100",
	SettingPointsStreakDays:       "7",
	SettingRedemptionExpiryDays:   "30",
}

// Notification types.
const (
	NotifyLevelUp             = "LEVEL_UP"
	NotifyAchievementUnlocked = "ACHIEVEMENT_UNLOCKED"
	NotifyReferralRewarded    = "REFERRAL_REWARDED"
	NotifyRedemption          = "REDEMPTION"
	NotifyPointsAdjusted      = "POINTS_ADJUSTED"
)

// DayLayout is the UTC calendar-day key used for check-in uniqueness.
const DayLayout = "2006-01-02"
