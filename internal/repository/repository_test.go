package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/recipe-catalog/internal/database"
	"github.com/yukikurage/recipe-catalog/internal/models"
	"golang.org/x/sync/errgroup"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RepositoryTestSuite runs the GORM repositories against in-memory SQLite
type RepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	store Store
	ctx   context.Context
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

// SetupTest runs before each test
func (suite *RepositoryTestSuite) SetupTest() {
	var err error
	suite.db, err = database.OpenSQLite(":memory:")
	suite.Require().NoError(err)

	suite.store = NewStore(suite.db)
	suite.ctx = context.Background()
}

// TearDownTest runs after each test
func (suite *RepositoryTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *RepositoryTestSuite) createTestUser(username string) *models.User {
	user := &models.User{Username: username, PasswordHash: "hashedpassword"}
	suite.Require().NoError(suite.store.Users().Create(suite.ctx, user))
	return user
}

func (suite *RepositoryTestSuite) createTestRecipe(owner *models.User, category *models.Category, title, instructions string, ingredients ...string) *models.Recipe {
	recipe := &models.Recipe{
		UserID:       owner.ID,
		CategoryID:   category.ID,
		Title:        title,
		TitleKey:     title,
		PrepTime:     5,
		CookTime:     10,
		Difficulty:   models.DifficultyEasy,
		Instructions: instructions,
	}
	suite.Require().NoError(suite.store.Recipes().Create(suite.ctx, recipe))

	for i, name := range ingredients {
		ingredient, err := suite.store.Ingredients().FindOrCreate(suite.ctx, name, name)
		suite.Require().NoError(err)
		suite.Require().NoError(suite.store.Recipes().AddIngredient(suite.ctx, &models.RecipeIngredient{
			RecipeID:     recipe.ID,
			IngredientID: ingredient.ID,
			Position:     i,
			Quantity:     "1",
			Unit:         "cup",
		}))
	}
	return recipe
}

func (suite *RepositoryTestSuite) category(name string) *models.Category {
	category, err := suite.store.Categories().FindOrCreate(suite.ctx, name, name)
	suite.Require().NoError(err)
	return category
}

func (suite *RepositoryTestSuite) TestUsers_CreateAndFind() {
	user := suite.createTestUser("chef1")

	found, err := suite.store.Users().FindByUsername(suite.ctx, "chef1")
	suite.Require().NoError(err)
	suite.Equal(user.ID, found.ID)

	found, err = suite.store.Users().FindByID(suite.ctx, user.ID)
	suite.Require().NoError(err)
	suite.Equal("chef1", found.Username)

	_, err = suite.store.Users().FindByUsername(suite.ctx, "nobody")
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (suite *RepositoryTestSuite) TestUsers_DuplicateUsername() {
	suite.createTestUser("chef1")

	err := suite.store.Users().Create(suite.ctx, &models.User{Username: "chef1", PasswordHash: "x"})
	suite.ErrorIs(err, ErrAlreadyExists)
}

func (suite *RepositoryTestSuite) TestCategories_FindOrCreateReturnsExistingRow() {
	first, err := suite.store.Categories().FindOrCreate(suite.ctx, "Dessert", "dessert")
	suite.Require().NoError(err)

	second, err := suite.store.Categories().FindOrCreate(suite.ctx, "Dessert", "dessert")
	suite.Require().NoError(err)
	suite.Equal(first.ID, second.ID)

	var count int64
	suite.db.Model(&models.Category{}).Count(&count)
	suite.Equal(int64(1), count)
}

func (suite *RepositoryTestSuite) TestIngredients_ConcurrentFindOrCreate() {
	var g errgroup.Group
	ids := make([]uint64, 8)
	for i := range ids {
		g.Go(func() error {
			ingredient, err := suite.store.Ingredients().FindOrCreate(suite.ctx, "Flour", "flour")
			if err != nil {
				return err
			}
			ids[i] = ingredient.ID
			return nil
		})
	}
	suite.Require().NoError(g.Wait())

	for _, id := range ids {
		suite.Equal(ids[0], id)
	}

	var count int64
	suite.db.Model(&models.Ingredient{}).Count(&count)
	suite.Equal(int64(1), count)
}

func (suite *RepositoryTestSuite) TestIngredients_FindByKey() {
	created, err := suite.store.Ingredients().FindOrCreate(suite.ctx, "Milk", "milk")
	suite.Require().NoError(err)

	found, err := suite.store.Ingredients().FindByKey(suite.ctx, "milk")
	suite.Require().NoError(err)
	suite.Equal(created.ID, found.ID)
	suite.Equal("Milk", found.Name)

	_, err = suite.store.Categories().FindByKey(suite.ctx, "milk")
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (suite *RepositoryTestSuite) TestRecipes_FindByIDLoadsDetails() {
	owner := suite.createTestUser("chef1")
	recipe := suite.createTestRecipe(owner, suite.category("breakfast"), "pancakes", "Mix and cook", "flour", "milk")

	found, err := suite.store.Recipes().FindByID(suite.ctx, recipe.ID)
	suite.Require().NoError(err)
	suite.Equal("chef1", found.User.Username)
	suite.Equal("breakfast", found.Category.Name)
	suite.Require().Len(found.Ingredients, 2)
	suite.Equal("flour", found.Ingredients[0].Ingredient.Name)
	suite.Equal("milk", found.Ingredients[1].Ingredient.Name)

	_, err = suite.store.Recipes().FindByID(suite.ctx, recipe.ID+100)
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (suite *RepositoryTestSuite) TestRecipes_DuplicateTitleForOwner() {
	owner := suite.createTestUser("chef1")
	other := suite.createTestUser("chef2")
	category := suite.category("lunch")
	suite.createTestRecipe(owner, category, "soup", "Boil")

	exists, err := suite.store.Recipes().ExistsForOwner(suite.ctx, owner.ID, "soup")
	suite.Require().NoError(err)
	suite.True(exists)

	exists, err = suite.store.Recipes().ExistsForOwner(suite.ctx, other.ID, "soup")
	suite.Require().NoError(err)
	suite.False(exists)

	err = suite.store.Recipes().Create(suite.ctx, &models.Recipe{
		UserID: owner.ID, CategoryID: category.ID, Title: "Soup", TitleKey: "soup",
		PrepTime: 1, CookTime: 1, Difficulty: models.DifficultyEasy, Instructions: "again",
	})
	suite.ErrorIs(err, ErrAlreadyExists)

	suite.createTestRecipe(other, category, "soup", "Boil")
}

func (suite *RepositoryTestSuite) TestRecipes_AddIngredientPairIsUnique() {
	owner := suite.createTestUser("chef1")
	recipe := suite.createTestRecipe(owner, suite.category("dinner"), "stew", "Simmer", "beef")
	ingredient, err := suite.store.Ingredients().FindByKey(suite.ctx, "beef")
	suite.Require().NoError(err)

	err = suite.store.Recipes().AddIngredient(suite.ctx, &models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: ingredient.ID})
	suite.ErrorIs(err, ErrAlreadyExists)
}

func (suite *RepositoryTestSuite) TestRecipes_ListNewestFirstWithPagination() {
	owner := suite.createTestUser("chef1")
	category := suite.category("dinner")
	var ids []uint64
	for i := 0; i < 5; i++ {
		ids = append(ids, suite.createTestRecipe(owner, category, fmt.Sprintf("dish %d", i), "Cook").ID)
	}

	all, total, err := suite.store.Recipes().List(suite.ctx, RecipeFilter{})
	suite.Require().NoError(err)
	suite.Equal(int64(5), total)
	suite.Require().Len(all, 5)
	suite.Equal(ids[4], all[0].ID)
	suite.Equal(ids[0], all[4].ID)

	page, total, err := suite.store.Recipes().List(suite.ctx, RecipeFilter{Page: 1, PageSize: 2})
	suite.Require().NoError(err)
	suite.Equal(int64(5), total)
	suite.Require().Len(page, 2)
	suite.Equal(ids[2], page[0].ID)
	suite.Equal(ids[1], page[1].ID)

	page, _, err = suite.store.Recipes().List(suite.ctx, RecipeFilter{Page: 9, PageSize: 2})
	suite.Require().NoError(err)
	suite.NotNil(page)
	suite.Empty(page)
}

func (suite *RepositoryTestSuite) TestRecipes_ListByOwnerAndCategory() {
	owner := suite.createTestUser("chef1")
	other := suite.createTestUser("chef2")
	dinner := suite.category("dinner")
	lunch := suite.category("lunch")
	suite.createTestRecipe(owner, dinner, "stew", "Simmer")
	suite.createTestRecipe(other, lunch, "salad", "Toss")

	byOwner, _, err := suite.store.Recipes().List(suite.ctx, RecipeFilter{UserID: &owner.ID})
	suite.Require().NoError(err)
	suite.Require().Len(byOwner, 1)
	suite.Equal("stew", byOwner[0].Title)

	key := "lunch"
	byCategory, _, err := suite.store.Recipes().List(suite.ctx, RecipeFilter{CategoryKey: &key})
	suite.Require().NoError(err)
	suite.Require().Len(byCategory, 1)
	suite.Equal("salad", byCategory[0].Title)
}

func (suite *RepositoryTestSuite) TestRecipes_SearchDeduplicatesAndEscapes() {
	owner := suite.createTestUser("chef1")
	recipe := suite.createTestRecipe(owner, suite.category("dessert"), "cake", "Bake at 100% heat", "sugar", "brown sugar")
	suite.createTestRecipe(owner, suite.category("lunch"), "toast", "Toast the bread")

	results, total, err := suite.store.Recipes().List(suite.ctx, RecipeFilter{Search: "SUGAR"})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Require().Len(results, 1)
	suite.Equal(recipe.ID, results[0].ID)

	results, _, err = suite.store.Recipes().List(suite.ctx, RecipeFilter{Search: "dess"})
	suite.Require().NoError(err)
	suite.Require().Len(results, 1)

	results, _, err = suite.store.Recipes().List(suite.ctx, RecipeFilter{Search: "100%"})
	suite.Require().NoError(err)
	suite.Len(results, 1)

	results, _, err = suite.store.Recipes().List(suite.ctx, RecipeFilter{Search: "%"})
	suite.Require().NoError(err)
	suite.Len(results, 1)

	results, _, err = suite.store.Recipes().List(suite.ctx, RecipeFilter{Search: "' OR 1=1 --"})
	suite.Require().NoError(err)
	suite.Empty(results)
}

func (suite *RepositoryTestSuite) TestRecipes_DeleteRemovesAssociations() {
	owner := suite.createTestUser("chef1")
	recipe := suite.createTestRecipe(owner, suite.category("dinner"), "stew", "Simmer", "beef", "carrot")

	suite.Require().NoError(suite.store.Recipes().Delete(suite.ctx, recipe.ID))

	_, err := suite.store.Recipes().FindByID(suite.ctx, recipe.ID)
	suite.ErrorIs(err, gorm.ErrRecordNotFound)

	var links int64
	suite.db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", recipe.ID).Count(&links)
	suite.Zero(links)

	var ingredients int64
	suite.db.Model(&models.Ingredient{}).Count(&ingredients)
	suite.Equal(int64(2), ingredients)

	suite.NoError(suite.store.Recipes().Delete(suite.ctx, recipe.ID))
}

func (suite *RepositoryTestSuite) TestTransaction_RollsBackOnError() {
	owner := suite.createTestUser("chef1")
	category := suite.category("dinner")
	boom := errors.New("boom")

	err := suite.store.Transaction(suite.ctx, func(tx Store) error {
		if err := tx.Recipes().Create(suite.ctx, &models.Recipe{
			UserID: owner.ID, CategoryID: category.ID, Title: "stew", TitleKey: "stew",
			PrepTime: 1, CookTime: 1, Difficulty: models.DifficultyEasy, Instructions: "Simmer",
		}); err != nil {
			return err
		}
		if _, err := tx.Ingredients().FindOrCreate(suite.ctx, "Beef", "beef"); err != nil {
			return err
		}
		return boom
	})
	suite.ErrorIs(err, boom)

	var recipes, ingredients int64
	suite.db.Model(&models.Recipe{}).Count(&recipes)
	suite.db.Model(&models.Ingredient{}).Count(&ingredients)
	suite.Zero(recipes)
	suite.Zero(ingredients)
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	return db, mock
}

func TestFindOrCreate_LosesInsertRace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCategoryRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `categories` WHERE name_key = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "name_key"}))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `categories`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT \\* FROM `categories` WHERE name_key = \\?.* FOR SHARE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "name_key"}).AddRow(42, "Dessert", "dessert"))

	category, err := repo.FindOrCreate(context.Background(), "Dessert", "dessert")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), category.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOrCreate_InsideTransactionRereadsWithLock(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `ingredients` WHERE name_key = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "name_key"}))
	mock.ExpectExec("INSERT INTO `ingredients`.*ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT \\* FROM `ingredients` WHERE name_key = \\?.* FOR SHARE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "name_key"}).AddRow(7, "Flour", "flour"))
	mock.ExpectCommit()

	var ingredient *models.Ingredient
	err := NewStore(db).Transaction(context.Background(), func(tx Store) error {
		var err error
		ingredient, err = tx.Ingredients().FindOrCreate(context.Background(), "Flour", "flour")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), ingredient.ID)
	assert.Equal(t, "Flour", ingredient.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOrCreate_PropagatesStorageErrors(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIngredientRepository(db)
	failure := errors.New("connection reset")

	mock.ExpectQuery("SELECT \\* FROM `ingredients` WHERE name_key = \\?").
		WillReturnError(failure)

	_, err := repo.FindOrCreate(context.Background(), "Flour", "flour")
	assert.ErrorIs(t, err, failure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})))
	assert.True(t, isUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("other")))
	assert.False(t, isUniqueViolation(nil))
}
