package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alluvi/go-storefront-api/internal/model"
)

func createTestProfile(t *testing.T, email string) *model.Profile {
	t.Helper()
	profile := &model.Profile{Email: email, Password: "hashed", FullName: "Test User"}
	require.NoError(t, NewProfileRepository(testPool).Create(context.Background(), profile))
	return profile
}

func createTestProduct(t *testing.T, createdBy uuid.UUID) *model.Product {
	t.Helper()
	product := &model.Product{
		Name: "Test Product", Description: "Desc",
		Price: decimal.NewFromFloat(29.99), StockQuantity: 100,
		IsActive: true, CreatedBy: createdBy,
	}
	require.NoError(t, NewProductRepository(testPool).Create(context.Background(), product))
	return product
}

func TestProfileRepo_CreateAndGetByEmail(t *testing.T) {
	cleanupTable(t, "order_items", "orders", "cart_items", "chat_messages", "chat_conversations", "products", "profiles")

	repo := NewProfileRepository(testPool)
	ctx := context.Background()

	profile := createTestProfile(t, "test@example.com")
	assert.NotEqual(t, uuid.Nil, profile.ID)

	found, err := repo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, profile.ID, found.ID)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProductRepo_CRUD(t *testing.T) {
	cleanupTable(t, "order_items", "orders", "cart_items", "products", "profiles")

	repo := NewProductRepository(testPool)
	ctx := context.Background()

	admin := createTestProfile(t, "admin@example.com")
	product := createTestProduct(t, admin.ID)
	assert.NotEqual(t, uuid.Nil, product.ID)

	found, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Product", found.Name)

	product.Name = "Updated"
	product.HasPromotion = true
	product.PromotionPercentage = decimal.NewFromInt(10)
	require.NoError(t, repo.Update(ctx, product))

	found, _ = repo.GetByID(ctx, product.ID)
	assert.Equal(t, "Updated", found.Name)
	assert.True(t, found.HasPromotion)

	require.NoError(t, repo.Delete(ctx, product.ID))
	found, _ = repo.GetByID(ctx, product.ID)
	assert.Nil(t, found)
}

func TestProductRepo_List_Filters(t *testing.T) {
	cleanupTable(t, "order_items", "orders", "cart_items", "products", "profiles")

	repo := NewProductRepository(testPool)
	ctx := context.Background()

	admin := createTestProfile(t, "admin@example.com")
	active := createTestProduct(t, admin.ID)

	inactive := &model.Product{
		Name: "Hidden", Price: decimal.NewFromInt(5), IsActive: false, CreatedBy: admin.ID,
	}
	require.NoError(t, repo.Create(ctx, inactive))

	products, total, err := repo.List(ctx, 10, 0, "", "created_at", "desc", true)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, active.ID, products[0].ID)

	_, total, err = repo.List(ctx, 10, 0, "", "created_at", "desc", false)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	products, _, err = repo.List(ctx, 10, 0, "hidden", "name", "asc", false)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Hidden", products[0].Name)
}

func TestCartRepo_UpsertMergesQuantity(t *testing.T) {
	cleanupTable(t, "order_items", "orders", "cart_items", "products", "profiles")

	cartRepo := NewCartRepository(testPool)
	ctx := context.Background()

	user := createTestProfile(t, "cart@example.com")
	product := createTestProduct(t, user.ID)

	require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{
		UserID: user.ID, ProductID: product.ID, Quantity: 2,
	}))
	require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{
		UserID: user.ID, ProductID: product.ID, Quantity: 3,
	}))

	items, err := cartRepo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	require.NotNil(t, items[0].Product)
	assert.Equal(t, product.ID, items[0].Product.ID)
}

func TestCartRepo_ClearUser(t *testing.T) {
	cleanupTable(t, "order_items", "orders", "cart_items", "products", "profiles")

	cartRepo := NewCartRepository(testPool)
	ctx := context.Background()

	user := createTestProfile(t, "clear@example.com")
	product := createTestProduct(t, user.ID)

	require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{
		UserID: user.ID, ProductID: product.ID, Quantity: 1,
	}))
	require.NoError(t, cartRepo.ClearUser(ctx, user.ID))

	items, err := cartRepo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestOrderRepo_CheckoutClearsCart(t *testing.T) {
	cleanupTable(t, "order_items", "orders", "cart_items", "products", "profiles")

	cartRepo := NewCartRepository(testPool)
	orderRepo := NewOrderRepository(testPool)
	ctx := context.Background()

	user := createTestProfile(t, "order@example.com")
	product := createTestProduct(t, user.ID)

	require.NoError(t, cartRepo.AddItem(ctx, &model.CartItem{
		UserID: user.ID, ProductID: product.ID, Quantity: 2,
	}))

	order := &model.Order{
		UserID: user.ID, ReferenceCode: "ORD-000001-TST",
		Status: model.OrderStatusPending, TotalAmount: decimal.NewFromFloat(59.98),
		Items: []model.OrderItem{{
			ProductID: product.ID, ProductName: product.Name, Quantity: 2,
			UnitPrice: product.Price, Subtotal: decimal.NewFromFloat(59.98),
		}},
	}
	require.NoError(t, orderRepo.CreateCheckout(ctx, order))
	assert.NotEqual(t, uuid.Nil, order.ID)

	items, err := cartRepo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	found, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORD-000001-TST", found.ReferenceCode)
	require.Len(t, found.Items, 1)
	assert.Equal(t, product.Name, found.Items[0].ProductName)
}

func TestOrderRepo_SearchByReference(t *testing.T) {
	cleanupTable(t, "order_items", "orders", "cart_items", "products", "profiles")

	orderRepo := NewOrderRepository(testPool)
	ctx := context.Background()

	user := createTestProfile(t, "search@example.com")
	for _, ref := range []string{"ORD-111111-AAA", "ORD-222222-BBB"} {
		require.NoError(t, orderRepo.CreateCheckout(ctx, &model.Order{
			UserID: user.ID, ReferenceCode: ref,
			Status: model.OrderStatusPending, TotalAmount: decimal.NewFromInt(10),
		}))
	}

	orders, err := orderRepo.Search(ctx, "111111")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ORD-111111-AAA", orders[0].ReferenceCode)

	orders, err = orderRepo.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestOrderRepo_UpdateStatus_ConfirmStamps(t *testing.T) {
	cleanupTable(t, "order_items", "orders", "cart_items", "products", "profiles")

	orderRepo := NewOrderRepository(testPool)
	ctx := context.Background()

	user := createTestProfile(t, "confirm@example.com")
	admin := createTestProfile(t, "boss@example.com")

	order := &model.Order{
		UserID: user.ID, ReferenceCode: "ORD-333333-CCC",
		Status: model.OrderStatusPending, TotalAmount: decimal.NewFromInt(10),
	}
	require.NoError(t, orderRepo.CreateCheckout(ctx, order))

	require.NoError(t, orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusConfirmed, &admin.ID))

	found, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, found.Status)
	require.NotNil(t, found.ConfirmedAt)
	require.NotNil(t, found.ConfirmedBy)
	assert.Equal(t, admin.ID, *found.ConfirmedBy)
}

func TestChatRepo_ConversationLifecycle(t *testing.T) {
	cleanupTable(t, "chat_messages", "chat_conversations", "profiles")

	chatRepo := NewChatRepository(testPool)
	ctx := context.Background()

	user := createTestProfile(t, "chat@example.com")

	none, err := chatRepo.GetActiveConversation(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	conv := &model.Conversation{UserID: user.ID, Status: model.ConversationStatusActive}
	require.NoError(t, chatRepo.CreateConversation(ctx, conv))
	assert.NotEqual(t, uuid.Nil, conv.ID)

	found, err := chatRepo.GetActiveConversation(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, conv.ID, found.ID)

	admin := createTestProfile(t, "support@example.com")
	require.NoError(t, chatRepo.SetConversationStatus(ctx, conv.ID, model.ConversationStatusClosed, &admin.ID))

	none, err = chatRepo.GetActiveConversation(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestChatRepo_MessagesAndUnread(t *testing.T) {
	cleanupTable(t, "chat_messages", "chat_conversations", "profiles")

	chatRepo := NewChatRepository(testPool)
	ctx := context.Background()

	user := createTestProfile(t, "msg@example.com")
	admin := createTestProfile(t, "agent@example.com")

	conv := &model.Conversation{UserID: user.ID, Status: model.ConversationStatusActive}
	require.NoError(t, chatRepo.CreateConversation(ctx, conv))

	for _, content := range []string{"first", "second"} {
		require.NoError(t, chatRepo.InsertMessage(ctx, &model.Message{
			ConversationID: conv.ID, SenderID: user.ID,
			Type: model.MessageTypeText, Content: content,
		}))
	}

	msgs, err := chatRepo.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)

	unread, err := chatRepo.UnreadCount(ctx, conv.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	// The sender's own messages never count as unread for them.
	unread, err = chatRepo.UnreadCount(ctx, conv.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)

	require.NoError(t, chatRepo.MarkRead(ctx, conv.ID, admin.ID))
	require.NoError(t, chatRepo.MarkRead(ctx, conv.ID, admin.ID))

	unread, err = chatRepo.UnreadCount(ctx, conv.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}

func TestChatRepo_ListConversations_JoinsProfile(t *testing.T) {
	cleanupTable(t, "chat_messages", "chat_conversations", "profiles")

	chatRepo := NewChatRepository(testPool)
	ctx := context.Background()

	user := createTestProfile(t, "joined@example.com")
	conv := &model.Conversation{UserID: user.ID, Status: model.ConversationStatusActive}
	require.NoError(t, chatRepo.CreateConversation(ctx, conv))

	convs, err := chatRepo.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "joined@example.com", convs[0].UserEmail)
	assert.Equal(t, "Test User", convs[0].UserFullName)
}
