package classification

import "github.com/Veraticus/sentinel/internal/model"

// TablesVersion is the version of the compiled-in tables.
const TablesVersion = 1

// DefaultTables returns the built-in heuristic tables.
func DefaultTables() Tables {
	return Tables{
		Version: TablesVersion,
		ReplyPatterns: []string{
			`^re:\s*`,
			`^fwd?:\s*`,
			`^fw:\s*`,
			`^forward:\s*`,
			`\[fwd\]`,
			`\(fwd\)`,
		},
		PromotionalKeywords: []string{
			// Sales language
			"sale", "discount", "coupon", "deal", "offer", "promotion", "promo",
			"savings", "clearance", "limited time", "hurry", "special offer",
			"flash sale", "free shipping", "member exclusive", "shop now",
			"check out", "browse", "new arrivals", "trending", "bestseller",
			"catalog", "circular", "weekly ad", "black friday", "cyber monday",
			"holiday sale", "back to school",

			// Loyalty and contests
			"rewards program", "loyalty", "points earned", "cashback earned",
			"gift card", "sweepstakes", "contest", "giveaway",

			// Personalization
			"personalized", "just for you", "based on your", "you might like",

			// Deals and digests
			"weekly digest", "daily digest", "digest", "roundup", "this week",
			"new releases", "best deals", "top deals", "hot deals", "price drop",
			"discounted", "on sale", "reduced price", "lowest price", "price alert",
			"wishlist", "watch list", "compare prices", "deal alert",

			// Newsletters
			"newsletter", "subscriber", "unsubscribe", "marketing", "curated",
			"handpicked", "editor's picks", "featured",

			// Calls to action
			"discover", "explore", "view all", "see more", "learn more",
			"read more", "get started", "sign up",

			// Urgency
			"last chance", "expires soon", "while supplies last",
			"limited quantity", "almost gone",
		},
		MarketingPatterns: []string{
			`\d+%\s*off`,
			`save\s*\$\d+`,
			`free\s*shipping`,
			`limited\s*time`,
			`act\s*now`,
			`shop\s*now`,
			`don't\s*miss`,
			`hurry`,
			`ends\s*(soon|today)`,
			`check\s*this\s*week`,
			`new\s*discounts`,
			`best\s*deals`,
			`weekly\s*digest`,
			`\+\d+\s*this\s*week`,
			`deals?\s*weekly`,
			`price\s*drop`,
			`now\s*\$\d+`,
		},
		TrackingMarkers: []string{
			"awstrack.me",
			"click.",
			"track.",
			"utm_",
			"newsletter",
			"unsubscribe",
		},
		DealsPatterns: []string{
			`deals?\s*net`,
			`deals?\s*com`,
			`bargain`,
			`slickdeals`,
			`reddit.*deals`,
			`steam.*sale`,
			`game.*deals`,
		},
		StrongKeywords: []string{
			"receipt",
			"invoice",
			"order confirmation",
			"payment confirmation",
			"purchase confirmation",
			"order complete",
			"payment received",
			"order summary",
			"delivery confirmation",
			"shipped",
			"tracking",
			"order placed",
			"billing statement",
			"account statement",
		},
		EvidencePatterns: []string{
			`order\s*#?\s*[a-z0-9\-]{6,}`,
			`invoice\s*#?\s*[a-z0-9\-]{6,}`,
			`transaction\s*#?\s*[a-z0-9\-]{6,}`,
			`tracking\s*#?\s*[a-z0-9\-]{8,}`,
			`\$[0-9,]+\.[0-9]{2}`,
			`total:?\s*\$[0-9,]+\.[0-9]{2}`,
			`amount:?\s*\$[0-9,]+\.[0-9]{2}`,
			`paid:?\s*\$[0-9,]+\.[0-9]{2}`,
		},
		ScoreRules: []ScoreRule{
			{Pattern: `order\s*#?\s*[a-z0-9\-]{6,}`, Weight: 2},
			{Pattern: `\$[0-9,]+\.[0-9]{2}`, Weight: 2},
			{Pattern: `thank\s*you\s*for\s*(your\s*)?(order|purchase)`, Weight: 2},
			{Pattern: `invoice\s*#?\s*[a-z0-9\-]{6,}`, Weight: 2},
			{Pattern: `transaction`, Weight: 1},
			{Pattern: `payment`, Weight: 1},
			{Pattern: `billing`, Weight: 1},
			{Pattern: `statement`, Weight: 1},
			{Pattern: `account\s*balance`, Weight: 1},
			{Pattern: `due\s*date`, Weight: 1},
			{Pattern: `autopay`, Weight: 1},
			{Pattern: `direct\s*debit`, Weight: 1},
		},
		ReceiptThreshold: 3,
		KnownSenders: []string{
			"amazon.com",
			"amazon.co",
			"amazonses.com",
			"paypal.com",
			"paypal-communications.com",
			"stripe.com",
			"square.com",
			"apple.com",
			"itunes.com",
			"google.com",
			"googlepayments.com",
			"microsoft.com",
			"xbox.com",
			"uber.com",
			"lyft.com",
			"doordash.com",
			"grubhub.com",
			"instacart.com",
			"shipt.com",
		},
		ConfirmationPatterns: []string{
			`confirmation`,
			`receipt`,
			`order\s*#`,
			`invoice`,
			`payment`,
			`charged`,
			`bill`,
			`statement`,
			`\$[0-9,]+\.[0-9]{2}`,
		},
		Weights: ConfidenceWeights{
			StrongIndicator: 40,
			PerScorePoint:   10,
			KnownSender:     20,
			Confirmation:    10,
		},
		Categories: []CategoryRule{
			{Category: model.CategoryAmazon, Sender: []string{"amazon", "aws"}},
			// Checked before transportation so "ubereats" is not read as "uber".
			{Category: model.CategoryFoodDelivery, Sender: []string{"doordash", "grubhub", "ubereats"}},
			{Category: model.CategoryTransportation, Sender: []string{"uber", "lyft"}},
			{Category: model.CategoryRestaurants, Sender: []string{"starbucks", "mcdonalds", "subway"}},
			{Category: model.CategoryRetail, Sender: []string{"walmart", "target", "costco"}},
			{Category: model.CategorySubscriptions, Sender: []string{"netflix", "spotify", "adobe"}},
			{Category: model.CategoryPayments, Sender: []string{"paypal", "venmo", "square"}},
			{Category: model.CategoryUtilities, Sender: []string{"att", "verizon", "comcast", "xfinity", "spectrum"}},
			{
				Category: model.CategoryHealthcare,
				Sender:   []string{"cvs", "walgreens", "pharmacy"},
				Subject:  []string{"prescription", "copay"},
			},
			{
				Category: model.CategoryGovernment,
				Sender:   []string{"irs", "dmv", "gov"},
				Subject:  []string{"tax", "license"},
			},
		},
	}
}
