package main

import (
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"tugasku/models"
	"tugasku/pkg/crypt"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func setupRoutes(r *gin.Engine) {
	r.GET("/health", healthHandler)

	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", Inject(InjectConfig{
		Input:  func() any { return new(AuthLoginIn) },
		Output: tokensOut,
	}, loginHandler))
	v1.POST("/auth/refresh", Inject(InjectConfig{
		Input:  func() any { return new(RefreshIn) },
		Output: tokensOut,
	}, refreshHandler))
	v1.PUT("/user", Inject(InjectConfig{
		Input:  func() any { return new(UserCreateIn) },
		Output: userOut,
	}, createUserHandler))

	authed := v1.Group("")
	authed.Use(jwtAuthMiddleware())
	authed.POST("/auth/logout", Inject(InjectConfig{
		Input: func() any { return new(RefreshIn) },
	}, logoutHandler))

	authed.GET("/user", Inject(InjectConfig{Output: userOut, Encrypt: true}, getUserHandler))
	authed.PATCH("/user", Inject(InjectConfig{
		Input:   func() any { return new(UserUpdateIn) },
		Output:  userOut,
		Encrypt: true,
	}, updateUserHandler))

	authed.PUT("/tag", Inject(InjectConfig{
		Input:   func() any { return new(TagIn) },
		Output:  tagOut,
		Encrypt: true,
	}, createTagHandler))
	authed.GET("/tag", Inject(InjectConfig{Output: tagOut, Encrypt: true}, listTagsHandler))
	authed.GET("/tag/:tag_id", Inject(InjectConfig{Output: tagOut, Encrypt: true}, getTagHandler))
	authed.PATCH("/tag/:tag_id", Inject(InjectConfig{
		Input:   func() any { return new(TagIn) },
		Output:  tagOut,
		Encrypt: true,
	}, updateTagHandler))
	authed.DELETE("/tag/:tag_id", Inject(InjectConfig{Output: tagOut, Encrypt: true}, deleteTagHandler))

	authed.PUT("/task", Inject(InjectConfig{
		Input:   func() any { return new(TaskCreateIn) },
		Output:  taskOut,
		Encrypt: true,
	}, createTaskHandler))
	authed.GET("/task", Inject(InjectConfig{Output: taskOut, Encrypt: true}, listTasksHandler))
	authed.GET("/task/:task_id", Inject(InjectConfig{Output: taskOut, Encrypt: true}, getTaskHandler))
	authed.PATCH("/task/:task_id", Inject(InjectConfig{
		Input:   func() any { return new(TaskUpdateIn) },
		Output:  taskOut,
		Encrypt: true,
	}, updateTaskHandler))
	authed.DELETE("/task/:task_id", Inject(InjectConfig{Output: taskOut, Encrypt: true}, deleteTaskHandler))
	authed.GET("/task/status/:status", Inject(InjectConfig{Output: taskOut, Encrypt: true}, tasksByStatusHandler))
	authed.GET("/task/tag/:tag_id", Inject(InjectConfig{Output: taskOut, Encrypt: true}, tasksByTagHandler))
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			abortUnauthorized(c)
			return
		}
		claims, err := parseToken(authHeader[7:])
		if err != nil || claims["type"] != tokenTypeAccess {
			abortUnauthorized(c)
			return
		}
		userID, ok := claimsUserID(claims)
		if !ok {
			abortUnauthorized(c)
			return
		}
		c.Set(ctxUserID, userID)
		if salt, _ := claims["salt"].(string); salt != "" {
			c.Set(ctxSalt, salt)
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	writeResponse(c, respondErr(msgAuthRequired, http.StatusUnauthorized))
	c.Abort()
}

// currentUser fetches the authenticated caller set by jwtAuthMiddleware.
func currentUser(c *gin.Context) (*models.User, bool) {
	id, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, false
	}
	return &user, true
}

// paramID parses a numeric path parameter. Zero and garbage both fail.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func healthHandler(c *gin.Context) {
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"msg": "database unreachable", "data": gin.H{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok", "data": gin.H{}})
}

// ---- auth ----

func loginHandler(c *gin.Context, in any) *Response {
	req := in.(*AuthLoginIn)

	user, err := Authenticate(req.Email, req.Password)
	if err != nil {
		return respondErr(msgBadCredentials, http.StatusUnauthorized)
	}

	// One key and one salt per login; neither is stored. The salt rides in
	// the access token, the key goes to the client exactly once.
	key, salt, err := crypt.LoginKey(user.HashedPassword)
	if err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	access, err := issueAccessToken(user.ID, salt)
	if err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	refresh, err := issueRefreshToken(user.ID)
	if err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}

	user.LastLogin = time.Now()
	db.Model(user).Update("last_login", user.LastLogin)

	return respond(msgLoggedIn, http.StatusOK, AuthTokensOut{
		AccessToken:  access,
		RefreshToken: refresh,
		Key:          hex.EncodeToString(key),
	})
}

func refreshHandler(c *gin.Context, in any) *Response {
	req := in.(*RefreshIn)

	claims, err := parseToken(req.RefreshToken)
	if err != nil || claims["type"] != tokenTypeRefresh || refreshTokenRevoked(req.RefreshToken) {
		return respondErr(msgAuthRequired, http.StatusUnauthorized)
	}
	userID, ok := claimsUserID(claims)
	if !ok {
		return respondErr(msgAuthRequired, http.StatusUnauthorized)
	}

	// Refreshed tokens carry no salt: the response key cannot outlive the
	// login that minted it, so encrypted endpoints require a fresh login.
	access, err := issueAccessToken(userID, "")
	if err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	return respond(msgTokenRefreshed, http.StatusOK, AccessTokenOut{AccessToken: access})
}

func logoutHandler(c *gin.Context, in any) *Response {
	req := in.(*RefreshIn)

	claims, err := parseToken(req.RefreshToken)
	if err != nil || claims["type"] != tokenTypeRefresh {
		return respondErr(msgAuthRequired, http.StatusUnauthorized)
	}
	userID, ok := claimsUserID(claims)
	if !ok {
		return respondErr(msgAuthRequired, http.StatusUnauthorized)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return respondErr(msgAuthRequired, http.StatusUnauthorized)
	}
	if err := revokeRefreshToken(userID, req.RefreshToken, exp.Time); err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	return respond(msgLoggedOut, http.StatusOK, nil)
}

// ---- user ----

func createUserHandler(c *gin.Context, in any) *Response {
	req := in.(*UserCreateIn)

	var existing models.User
	if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return respondErr(userMsgs.Exists, http.StatusConflict)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	user := models.User{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		HashedPassword: hashed,
		IsActive:       true,
		LastLogin:      time.Now(),
	}
	if err := db.Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) { // lost the race after the pre-check
			return respondErr(userMsgs.Exists, http.StatusConflict)
		}
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	return respond(userMsgs.Created, http.StatusCreated, user)
}

func getUserHandler(c *gin.Context, in any) *Response {
	user, ok := currentUser(c)
	if !ok {
		return respondErr(msgAuthRequired, http.StatusUnauthorized)
	}
	return respond(userMsgs.Retrieved, http.StatusOK, user)
}

func updateUserHandler(c *gin.Context, in any) *Response {
	req := in.(*UserUpdateIn)
	user, ok := currentUser(c)
	if !ok {
		return respondErr(msgAuthRequired, http.StatusUnauthorized)
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Password != "" {
		// Rotating the password rotates the key-derivation secret: keys from
		// earlier logins stop decrypting from the next request on.
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return respondErr(msgInternalError, http.StatusInternalServerError)
		}
		user.HashedPassword = hashed
	}
	if err := db.Save(user).Error; err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	return respond(userMsgs.Updated, http.StatusOK, user)
}

// ---- tag ----

func createTagHandler(c *gin.Context, in any) *Response {
	req := in.(*TagIn)
	userID, _ := currentUserID(c)

	var existing models.Tag
	if err := db.Where("user_id = ? AND name = ?", userID, req.Name).First(&existing).Error; err == nil {
		return respondErr(tagMsgs.Exists, http.StatusConflict)
	}
	tag := models.Tag{Name: req.Name, UserID: userID}
	if err := db.Create(&tag).Error; err != nil {
		if isUniqueConstraintError(err) {
			return respondErr(tagMsgs.Exists, http.StatusConflict)
		}
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	return respond(tagMsgs.Created, http.StatusCreated, tag)
}

func listTagsHandler(c *gin.Context, in any) *Response {
	userID, _ := currentUserID(c)
	var tags []models.Tag
	if err := db.Where("user_id = ?", userID).Order("id").Find(&tags).Error; err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	return respond(tagMsgs.Retrieved, http.StatusOK, tags)
}

func getTagHandler(c *gin.Context, in any) *Response {
	userID, _ := currentUserID(c)
	tagID, ok := paramID(c, "tag_id")
	if !ok {
		return respondErr(tagMsgs.NotFound, http.StatusNotFound)
	}
	var tag models.Tag
	if err := db.Where("id = ? AND user_id = ?", tagID, userID).First(&tag).Error; err != nil {
		return respondErr(tagMsgs.NotFound, http.StatusNotFound)
	}
	return respond(tagMsgs.Retrieved, http.StatusOK, tag)
}

func updateTagHandler(c *gin.Context, in any) *Response {
	req := in.(*TagIn)
	userID, _ := currentUserID(c)
	tagID, ok := paramID(c, "tag_id")
	if !ok {
		return respondErr(tagMsgs.NotFound, http.StatusNotFound)
	}
	var tag models.Tag
	if err := db.Where("id = ? AND user_id = ?", tagID, userID).First(&tag).Error; err != nil {
		return respondErr(tagMsgs.NotFound, http.StatusNotFound)
	}
	tag.Name = req.Name
	if err := db.Save(&tag).Error; err != nil {
		if isUniqueConstraintError(err) {
			return respondErr(tagMsgs.Exists, http.StatusConflict)
		}
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	return respond(tagMsgs.Updated, http.StatusOK, tag)
}

func deleteTagHandler(c *gin.Context, in any) *Response {
	userID, _ := currentUserID(c)
	tagID, ok := paramID(c, "tag_id")
	if !ok {
		return respondErr(tagMsgs.NotFound, http.StatusNotFound)
	}
	var tag models.Tag
	if err := db.Where("id = ? AND user_id = ?", tagID, userID).First(&tag).Error; err != nil {
		return respondErr(tagMsgs.NotFound, http.StatusNotFound)
	}
	if err := db.Where("tag_id = ?", tag.ID).Delete(&models.TaskTag{}).Error; err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	if err := db.Delete(&tag).Error; err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	// The removed record is echoed back so the client sees what went away.
	return respond(tagMsgs.Deleted, http.StatusOK, tag)
}

// ---- task ----

// tagsForUser resolves tag ids scoped to the user. ok is false when any id
// is unknown (or repeated), which callers report as not-found.
func tagsForUser(userID uint, ids []uint) ([]models.Tag, bool) {
	var tags []models.Tag
	if err := db.Where("user_id = ? AND id IN ?", userID, ids).Find(&tags).Error; err != nil {
		return nil, false
	}
	if len(tags) != len(ids) {
		return nil, false
	}
	return tags, true
}

// tagsForTask loads the tags currently linked to a task.
func tagsForTask(taskID uint) []models.Tag {
	var links []models.TaskTag
	db.Preload("Tag").Where("task_id = ?", taskID).Order("tag_id").Find(&links)
	tags := make([]models.Tag, 0, len(links))
	for _, l := range links {
		tags = append(tags, l.Tag)
	}
	return tags
}

func createTaskHandler(c *gin.Context, in any) *Response {
	req := in.(*TaskCreateIn)
	userID, _ := currentUserID(c)

	var tags []models.Tag
	if len(req.Tags) > 0 {
		var ok bool
		tags, ok = tagsForUser(userID, req.Tags)
		if !ok {
			return respondErr(tagMsgs.NotFound, http.StatusNotFound)
		}
	}

	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatusPending,
		UserID:      userID,
	}
	if err := db.Create(&task).Error; err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	for _, tg := range tags {
		if err := db.Create(&models.TaskTag{TaskID: task.ID, TagID: tg.ID}).Error; err != nil {
			return respondErr(msgInternalError, http.StatusInternalServerError)
		}
	}
	return respond(taskMsgs.Created, http.StatusCreated, TaskWithTags{Task: task, Tags: tags})
}

func listTasksHandler(c *gin.Context, in any) *Response {
	userID, _ := currentUserID(c)
	var tasks []models.Task
	if err := db.Where("user_id = ?", userID).Order("id").Find(&tasks).Error; err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	return respond(taskMsgs.Retrieved, http.StatusOK, tasks)
}

func getTaskHandler(c *gin.Context, in any) *Response {
	userID, _ := currentUserID(c)
	taskID, ok := paramID(c, "task_id")
	if !ok {
		return respondErr(taskMsgs.NotFound, http.StatusNotFound)
	}
	var task models.Task
	if err := db.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
		return respondErr(taskMsgs.NotFound, http.StatusNotFound)
	}
	return respond(taskMsgs.Retrieved, http.StatusOK, TaskWithTags{Task: task, Tags: tagsForTask(task.ID)})
}

func updateTaskHandler(c *gin.Context, in any) *Response {
	req := in.(*TaskUpdateIn)
	userID, _ := currentUserID(c)
	taskID, ok := paramID(c, "task_id")
	if !ok {
		return respondErr(taskMsgs.NotFound, http.StatusNotFound)
	}
	var task models.Task
	if err := db.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
		return respondErr(taskMsgs.NotFound, http.StatusNotFound)
	}

	var tags []models.Tag
	if len(req.Tags) > 0 {
		tags, ok = tagsForUser(userID, req.Tags)
		if !ok {
			return respondErr(tagMsgs.NotFound, http.StatusNotFound)
		}
		if err := reconcileTaskTags(task.ID, req.Tags); err != nil {
			return respondErr(msgInternalError, http.StatusInternalServerError)
		}
	} else {
		// No tag change requested: echo back what the task carries now.
		tags = tagsForTask(task.ID)
	}

	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != "" {
		task.Description = req.Description
	}
	if req.Status != "" {
		task.Status = req.Status
	}
	if err := db.Save(&task).Error; err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	return respond(taskMsgs.Updated, http.StatusOK, TaskWithTags{Task: task, Tags: tags})
}

// reconcileTaskTags makes the link set match want: links for tags no longer
// wanted are removed, missing ones created, the overlap left alone.
func reconcileTaskTags(taskID uint, want []uint) error {
	var links []models.TaskTag
	if err := db.Where("task_id = ?", taskID).Find(&links).Error; err != nil {
		return err
	}
	have := make(map[uint]bool, len(links))
	for _, l := range links {
		have[l.TagID] = true
	}
	wanted := make(map[uint]bool, len(want))
	for _, id := range want {
		wanted[id] = true
	}
	for _, l := range links {
		if !wanted[l.TagID] {
			if err := db.Delete(&models.TaskTag{}, l.ID).Error; err != nil {
				return err
			}
		}
	}
	for _, id := range want {
		if !have[id] {
			if err := db.Create(&models.TaskTag{TaskID: taskID, TagID: id}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func deleteTaskHandler(c *gin.Context, in any) *Response {
	userID, _ := currentUserID(c)
	taskID, ok := paramID(c, "task_id")
	if !ok {
		return respondErr(taskMsgs.NotFound, http.StatusNotFound)
	}
	var task models.Task
	if err := db.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
		return respondErr(taskMsgs.NotFound, http.StatusNotFound)
	}
	if err := db.Where("task_id = ?", task.ID).Delete(&models.TaskTag{}).Error; err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	if err := db.Delete(&task).Error; err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	return respond(taskMsgs.Deleted, http.StatusOK, task)
}

func tasksByStatusHandler(c *gin.Context, in any) *Response {
	userID, _ := currentUserID(c)
	status := c.Param("status")
	var tasks []models.Task
	if err := db.Where("user_id = ? AND status = ?", userID, status).Order("id").Find(&tasks).Error; err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	return respond(taskMsgs.Retrieved, http.StatusOK, tasks)
}

func tasksByTagHandler(c *gin.Context, in any) *Response {
	userID, _ := currentUserID(c)
	tagID, ok := paramID(c, "tag_id")
	if !ok {
		return respondErr(tagMsgs.NotFound, http.StatusNotFound)
	}
	var tasks []models.Task
	err := db.Joins("JOIN task_tags ON task_tags.task_id = tasks.id").
		Where("task_tags.tag_id = ? AND tasks.user_id = ?", tagID, userID).
		Order("tasks.id").
		Find(&tasks).Error
	if err != nil {
		return respondErr(msgInternalError, http.StatusInternalServerError)
	}
	return respond(taskMsgs.Retrieved, http.StatusOK, tasks)
}
