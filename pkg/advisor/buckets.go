package advisor

// bucket pairs a keyword set with a canned body and one insight tag.
// Matching is case-insensitive substring match against the lowercased query.
type bucket struct {
	name     string
	keywords []string
	body     string
	insight  Insight
}

// buckets is evaluated in priority order: the first bucket with a keyword hit
// supplies the response body. Order matters and is part of the contract
// ("save" outranks "invest").
var buckets = []bucket{
	{
		name:     "spending",
		keywords: []string{"spend", "budget", "expense", "dining", "cost"},
		body: "Based on your transaction history, here are 3 opportunities to reduce your monthly expenses:\n\n" +
			"1. Subscription services: You're spending $65/month on services you rarely use\n" +
			"2. Dining out: Reducing dining out by just 1 meal per week would save $160/month\n" +
			"3. Groceries: Shopping at a different store could save about $85/month based on local price comparisons\n\n" +
			"Implementing these changes could save you approximately $310 per month.",
		insight: Insight{
			Category:    "spending",
			Description: "Regularly reviewing your subscriptions and recurring charges can help optimize your spending.",
			Importance:  "medium",
		},
	},
	{
		name:     "saving",
		keywords: []string{"save", "saving", "emergency fund"},
		body: "Based on your monthly income of $5,400 and expenses of $4,100, a healthy savings target would be " +
			"$750-$850 per month (about 15% of your income). Currently, you're saving about $500/month, which is " +
			"good but could be optimized. Consider:\n\n" +
			"1. Emergency fund: Maintain 3-6 months of expenses ($12,300-$24,600)\n" +
			"2. Retirement: Continue 10% contribution plus employer match\n" +
			"3. Short-term goals: Allocate remaining savings to your travel fund\n\n" +
			"This balanced approach ensures both short and long-term financial security.",
		insight: Insight{
			Category:    "savings",
			Description: "Having an emergency fund covering 3-6 months of expenses is essential for financial security.",
			Importance:  "high",
		},
	},
	{
		name:     "investing",
		keywords: []string{"invest", "stock", "bond", "portfolio"},
		body: "With your moderate risk profile, a diversified mix of low-cost index funds is a solid starting " +
			"point. Consider:\n\n" +
			"1. Max out tax-advantaged accounts before adding to taxable investments\n" +
			"2. Keep 3-6 months of expenses liquid before increasing positions\n" +
			"3. Rebalance once a year rather than reacting to market swings\n\n" +
			"Consistent monthly contributions matter more than timing the market.",
		insight: Insight{
			Category:    "investing",
			Description: "Diversifying your investments across asset classes can reduce risk while maintaining long-term growth.",
			Importance:  "medium",
		},
	},
	{
		name:     "debt",
		keywords: []string{"debt", "loan", "credit card", "mortgage"},
		body: "With your credit card interest rate at 18.99%, prioritizing debt repayment before additional " +
			"investments would be financially optimal. Your investment returns average 8-10%, which is less than " +
			"your debt interest cost. I recommend:\n\n" +
			"1. Maintain your current retirement contributions to get employer matching\n" +
			"2. Direct extra funds to pay down credit card debt\n" +
			"3. Once debt is eliminated, redirect those payments to investments\n\n" +
			"This strategy would save you approximately $2,800 in interest over the next year.",
		insight: Insight{
			Category:    "debt",
			Description: "Your debt-to-income ratio is high. Focusing on debt reduction can improve your financial health.",
			Importance:  "high",
		},
	},
	{
		name:     "retirement",
		keywords: []string{"retire", "401k", "ira"},
		body: "Based on your current savings rate of 10% of income and your retirement accounts totaling $85,000, " +
			"you're currently on track to reach about 65% of your needed retirement income by age 65. To reach " +
			"your full retirement goal, consider:\n\n" +
			"1. Increasing your contribution rate to 15%\n" +
			"2. Maximizing your employer match benefit\n" +
			"3. Exploring catch-up contributions when eligible\n\n" +
			"Making these changes could potentially close the gap and allow you to retire comfortably at your target age.",
		insight: Insight{
			Category:    "retirement",
			Description: "Increasing your contribution rate and maximizing your employer match can close the gap to your retirement goal.",
			Importance:  "medium",
		},
	},
	{
		name:     "goals",
		keywords: []string{"goal", "target", "down payment"},
		body: "Based on your financial profile and goal to purchase a home in the next 3 years, I recommend:\n\n" +
			"1. Increase your monthly savings by $300 by reducing entertainment expenses\n" +
			"2. Open a high-yield savings account for your down payment fund (Premium Savings Account has a 2.5% APY)\n" +
			"3. Set up automatic transfers of $850/month to this account\n\n" +
			"This approach will help you save approximately $32,400 in 3 years, plus interest, which would be " +
			"sufficient for a 10% down payment on a $320,000 home.",
		insight: Insight{
			Category:    "goals",
			Description: "Setting up automatic transfers toward your savings goals makes steady progress without relying on willpower.",
			Importance:  "low",
		},
	},
}

// fallbackBody is returned when no bucket matches, including for
// empty or whitespace-only input.
const fallbackBody = "I can help with questions about spending, saving, investing, debt, retirement, and " +
	"financial goals. Could you share a bit more about what you'd like to know?"

// fallbackInsight guarantees the insight list is never empty.
var fallbackInsight = Insight{
	Category:    "general",
	Description: "Tracking your expenses regularly can help you identify spending patterns and opportunities to save.",
	Importance:  "medium",
}
