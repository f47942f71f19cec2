// Copyright 2025 Alibaba Group Holding Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package auth

// Name the header/param conventions Client.Do and Auth.AddAuthToURL
// apply; both of those write the strings inline rather than referencing
// these constants.
const (
	AuthTypeNone          = "none"
	AuthTypeToken         = "token"
	AuthTypeBasic         = "basic"
	AuthHeaderKey         = "Authorization"
	AuthHeaderValuePrefix = "token "
	AuthURLParamKey       = "token"
)

// NewAuth creates an empty authentication configuration.
func NewAuth() *Auth {
	return &Auth{}
}

// IsValid reports whether token or username/password are present.
func (a *Auth) IsValid() bool {
	return a.Token != "" || (a.Username != "" && a.Password != "")
}

// GetAuthType returns token/basic/none.
func (a *Auth) GetAuthType() string {
	return a.Validate()
}
